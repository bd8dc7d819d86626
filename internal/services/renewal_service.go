package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/credits"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/models"
	"gorm.io/gorm"
)

// Skip reasons surfaced in the renewal summary.
const (
	skipPlanNotMonthly = "plan is not monthly"
	skipNotActive      = "subscription is not active"
	skipNoAnchor       = "no subscription anchor date"
	skipNotDue         = "not due for renewal"
	skipAlreadyRenewed = "already renewed this cycle"
)

// RenewalStore is the persistence surface the sweep needs. Tests substitute a
// stub; production uses the GORM-backed implementation below.
type RenewalStore interface {
	// SubscribedUsers streams users that hold any subscription plan, in
	// batches, across all tenants.
	SubscribedUsers(ctx context.Context, batchSize int, fn func(users []models.User) error) error
	// ResetCycleUsage zeroes credits_used and stamps last_renewed_at in one
	// conditional statement. It reports false when another run already
	// renewed this cycle (the at-most-once guard).
	ResetCycleUsage(ctx context.Context, userID uuid.UUID, cycleStart, renewedAt time.Time) (bool, error)
	// AppendRenewal writes the renewal ledger entry.
	AppendRenewal(ctx context.Context, entry *models.CreditTransaction) error
}

// RenewalService sweeps subscribed users once a day (or on admin demand) and
// resets the cycle usage of everyone whose billing anchor has come around.
// Users are independent units of work: one failure is recorded in the summary
// and the sweep moves on.
type RenewalService struct {
	store      RenewalStore
	creditsSvc *CreditsService
	batchSize  int
	now        func() time.Time
}

func NewRenewalService(store RenewalStore, creditsSvc *CreditsService, batchSize int) *RenewalService {
	return &RenewalService{
		store:      store,
		creditsSvc: creditsSvc,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// Run executes one renewal sweep and returns its summary. Re-running within
// the same cycle is safe: the conditional reset refuses users whose
// last_renewed_at already falls inside the current cycle.
func (s *RenewalService) Run(ctx context.Context) (*dto.RenewalSummary, error) {
	now := s.now().UTC()
	summary := &dto.RenewalSummary{
		RenewedUserIDs: []uuid.UUID{},
		SkippedUsers:   []dto.SkippedUser{},
	}

	err := s.store.SubscribedUsers(ctx, s.batchSize, func(users []models.User) error {
		for i := range users {
			s.processUser(ctx, &users[i], now, summary)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renewal sweep failed to load users: %w", err)
	}

	slog.Info("renewal sweep finished",
		"processed", summary.TotalProcessed,
		"renewed", summary.TotalRenewed,
		"skipped", summary.TotalSkipped,
	)
	return summary, nil
}

func (s *RenewalService) processUser(ctx context.Context, user *models.User, now time.Time, summary *dto.RenewalSummary) {
	summary.TotalProcessed++

	skip := func(reason string) {
		summary.TotalSkipped++
		summary.SkippedUsers = append(summary.SkippedUsers, dto.SkippedUser{UserID: user.ID, Reason: reason})
	}

	if user.Plan != models.PlanMonthly {
		skip(skipPlanNotMonthly)
		return
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		skip(skipNotActive)
		return
	}
	if user.SubscriptionAnchorAt == nil {
		skip(skipNoAnchor)
		return
	}
	if !credits.Due(*user.SubscriptionAnchorAt, user.LastRenewedAt, now) {
		skip(skipNotDue)
		return
	}

	cycleStart := credits.CycleStart(*user.SubscriptionAnchorAt, now)
	applied, err := s.store.ResetCycleUsage(ctx, user.ID, cycleStart, now)
	if err != nil {
		slog.Error("renewal reset failed", "user_id", user.ID, "app_id", user.AppID, "error", err)
		skip("renewal failed: " + err.Error())
		return
	}
	if !applied {
		skip(skipAlreadyRenewed)
		return
	}

	// Counters after the reset: used is zero, purchased balance untouched.
	counters := credits.FromNullable(user.CreditsLimit, nil, user.CreditsBalance)
	entry := &models.CreditTransaction{
		ID:           uuid.New(),
		AppID:        user.AppID,
		UserID:       user.ID,
		Type:         models.TransactionCredit,
		Source:       models.SourceRenewal,
		Amount:       counters.Limit,
		Description:  "monthly credit renewal",
		BalanceAfter: counters.Available(),
		CreatedAt:    now,
	}
	if err := s.store.AppendRenewal(ctx, entry); err != nil {
		// The reset already happened; the user is renewed either way. The
		// missing audit row is logged for operators rather than undone.
		slog.Error("failed to record renewal transaction", "user_id", user.ID, "app_id", user.AppID, "error", err)
	}

	s.creditsSvc.Invalidate(user.AppID, user.ID)
	summary.TotalRenewed++
	summary.RenewedUserIDs = append(summary.RenewedUserIDs, user.ID)
}

// gormRenewalStore is the production RenewalStore.
type gormRenewalStore struct {
	db *gorm.DB
}

func NewGormRenewalStore(db *gorm.DB) RenewalStore {
	return &gormRenewalStore{db: db}
}

func (s *gormRenewalStore) SubscribedUsers(ctx context.Context, batchSize int, fn func(users []models.User) error) error {
	var batch []models.User
	result := s.db.WithContext(ctx).
		Where("plan <> ''").
		Order("id").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

func (s *gormRenewalStore) ResetCycleUsage(ctx context.Context, userID uuid.UUID, cycleStart, renewedAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Where("last_renewed_at IS NULL OR last_renewed_at < ?", cycleStart).
		Updates(map[string]interface{}{
			"credits_used":    0,
			"last_renewed_at": renewedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *gormRenewalStore) AppendRenewal(ctx context.Context, entry *models.CreditTransaction) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
