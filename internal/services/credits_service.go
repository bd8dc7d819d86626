package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/credits"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/models"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
)

// CreditsService owns every read and write of the credit ledger: balance
// reads (cached), atomic debits and credits, and the append-only transaction
// history.
type CreditsService struct {
	db    *gorm.DB
	cache *credits.BalanceCache
}

func NewCreditsService(db *gorm.DB, cache *credits.BalanceCache) *CreditsService {
	return &CreditsService{db: db, cache: cache}
}

// GetBalance returns the caller's credit counters and derived availability,
// served from the short-lived cache when possible.
func (s *CreditsService) GetBalance(appID string, userID uuid.UUID) (*dto.BalanceResponse, error) {
	if snap, ok := s.cache.Get(appID, userID); ok {
		return balanceResponse(snap), nil
	}

	var user models.User
	if err := s.db.Scopes(tenant.ForTenant(appID)).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user counters: %w", err)
	}

	snap := snapshotOf(&user)
	s.cache.Set(appID, userID, snap)
	return balanceResponse(snap), nil
}

// Consume debits amount credits for a generation. The eligibility check and
// the counter mutation are one conditional UPDATE, so two simultaneous
// generations can never overspend: subscription allowance is drained first,
// the remainder comes out of the purchased balance, and the statement only
// applies when the combined availability covers the full amount.
func (s *CreditsService) Consume(appID string, userID uuid.UUID, amount int, referenceID, description string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var entry *models.CreditTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND app_id = ?", userID, appID).
			Where("GREATEST(COALESCE(credits_limit,0) - COALESCE(credits_used,0), 0) + COALESCE(credits_balance,0) >= ?", amount).
			Updates(map[string]interface{}{
				"credits_used":    gorm.Expr("COALESCE(credits_used,0) + LEAST(?, GREATEST(COALESCE(credits_limit,0) - COALESCE(credits_used,0), 0))", amount),
				"credits_balance": gorm.Expr("COALESCE(credits_balance,0) - GREATEST(? - GREATEST(COALESCE(credits_limit,0) - COALESCE(credits_used,0), 0), 0)", amount),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to debit credits: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			tx.Model(&models.User{}).Where("id = ? AND app_id = ?", userID, appID).Count(&count)
			if count == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientCredits
		}

		user, err := s.reload(tx, appID, userID)
		if err != nil {
			return err
		}
		entry, err = s.record(tx, user, models.TransactionDebit, models.SourceConsumption, amount, description, referenceID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(appID, userID)
	return entry, nil
}

// Refund reverses a prior consumption, e.g. when a generation fails after the
// debit. Cycle usage is credited back first; anything beyond what was drawn
// from the allowance lands on the purchased balance.
func (s *CreditsService) Refund(appID string, userID uuid.UUID, amount int, referenceID, description string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var entry *models.CreditTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND app_id = ?", userID, appID).
			Updates(map[string]interface{}{
				"credits_used":    gorm.Expr("GREATEST(COALESCE(credits_used,0) - ?, 0)", amount),
				"credits_balance": gorm.Expr("COALESCE(credits_balance,0) + GREATEST(? - COALESCE(credits_used,0), 0)", amount),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to refund credits: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		user, err := s.reload(tx, appID, userID)
		if err != nil {
			return err
		}
		entry, err = s.record(tx, user, models.TransactionCredit, models.SourceConsumption, amount, description, referenceID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(appID, userID)
	return entry, nil
}

// AddPurchased adds à la carte credits to the non-expiring balance.
func (s *CreditsService) AddPurchased(appID string, userID uuid.UUID, amount int, referenceID, description string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var entry *models.CreditTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND app_id = ?", userID, appID).
			Update("credits_balance", gorm.Expr("COALESCE(credits_balance,0) + ?", amount))
		if res.Error != nil {
			return fmt.Errorf("failed to add purchased credits: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		user, err := s.reload(tx, appID, userID)
		if err != nil {
			return err
		}
		entry, err = s.record(tx, user, models.TransactionCredit, models.SourcePurchase, amount, description, referenceID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(appID, userID)
	return entry, nil
}

// AdminAdjust applies a signed manual correction to the purchased balance.
// Removals are refused rather than floored so an operator typo cannot silently
// eat more credits than the user has.
func (s *CreditsService) AdminAdjust(appID string, req *dto.AdjustCreditsRequest) (*models.CreditTransaction, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}

	txType := models.TransactionCredit
	amount := req.Amount
	if amount < 0 {
		txType = models.TransactionDebit
		amount = -amount
	}

	var entry *models.CreditTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.User{}).Where("id = ? AND app_id = ?", req.UserID, appID)
		if txType == models.TransactionDebit {
			query = query.Where("COALESCE(credits_balance,0) >= ?", amount).
				Update("credits_balance", gorm.Expr("COALESCE(credits_balance,0) - ?", amount))
		} else {
			query = query.Update("credits_balance", gorm.Expr("COALESCE(credits_balance,0) + ?", amount))
		}
		if query.Error != nil {
			return fmt.Errorf("failed to adjust credits: %w", query.Error)
		}
		if query.RowsAffected == 0 {
			var count int64
			tx.Model(&models.User{}).Where("id = ? AND app_id = ?", req.UserID, appID).Count(&count)
			if count == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientCredits
		}

		user, err := s.reload(tx, appID, req.UserID)
		if err != nil {
			return err
		}
		entry, err = s.record(tx, user, txType, models.SourceAdminAdjustment, amount, req.Description, "", nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(appID, req.UserID)
	return entry, nil
}

// ListTransactions returns the user's history, most recent first, with page
// and limit clamped to sane bounds. Entries are always scoped to the owner.
func (s *CreditsService) ListTransactions(appID string, userID uuid.UUID, page, limit int) (*dto.TransactionListResponse, error) {
	page = credits.ClampPage(page)
	limit = credits.ClampLimit(limit)

	var total int64
	if err := s.db.Model(&models.CreditTransaction{}).
		Scopes(tenant.ForTenant(appID)).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	var items []models.CreditTransaction
	if err := s.db.Scopes(tenant.ForTenant(appID)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &dto.TransactionListResponse{
		Items: items,
		Page:  credits.NewPage(page, limit, total),
	}, nil
}

// HasTransactionReference reports whether any ledger entry already references
// the given external ID. Webhook reconciliation uses this to stay idempotent
// per gateway payment.
func (s *CreditsService) HasTransactionReference(appID, referenceID string) (bool, error) {
	if referenceID == "" {
		return false, nil
	}
	var count int64
	err := s.db.Model(&models.CreditTransaction{}).
		Scopes(tenant.ForTenant(appID)).
		Where("reference_id = ?", referenceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check transaction reference: %w", err)
	}
	return count > 0, nil
}

// Invalidate drops any cached balance snapshot for the user. Writers outside
// this service (renewal sweep, webhook reconciliation) call it after touching
// the counters.
func (s *CreditsService) Invalidate(appID string, userID uuid.UUID) {
	s.cache.Invalidate(appID, userID)
}

func (s *CreditsService) reload(tx *gorm.DB, appID string, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.Scopes(tenant.ForTenant(appID)).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user counters: %w", err)
	}
	return &user, nil
}

// record appends an immutable ledger entry. BalanceAfter is recomputed from
// the counters as they stand after the write, never carried forward from a
// previous read.
func (s *CreditsService) record(tx *gorm.DB, user *models.User, txType models.TransactionType, source models.TransactionSource, amount int, description, referenceID string, metadata map[string]interface{}) (*models.CreditTransaction, error) {
	counters := credits.FromNullable(user.CreditsLimit, user.CreditsUsed, user.CreditsBalance)
	entry := &models.CreditTransaction{
		ID:           uuid.New(),
		AppID:        user.AppID,
		UserID:       user.ID,
		Type:         txType,
		Source:       source,
		Amount:       amount,
		Description:  description,
		ReferenceID:  referenceID,
		BalanceAfter: counters.Available(),
	}
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(b)
		}
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return entry, nil
}

func snapshotOf(user *models.User) credits.BalanceSnapshot {
	counters := credits.FromNullable(user.CreditsLimit, user.CreditsUsed, user.CreditsBalance)
	return credits.BalanceSnapshot{Counters: counters, Available: counters.Available()}
}

func balanceResponse(snap credits.BalanceSnapshot) *dto.BalanceResponse {
	return &dto.BalanceResponse{
		CreditsLimit:   snap.Counters.Limit,
		CreditsUsed:    snap.Counters.Used,
		CreditsBalance: snap.Counters.Balance,
		Available:      snap.Available,
	}
}
