package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vibelabs/vibephoto-backend/internal/credits"
	"github.com/vibelabs/vibephoto-backend/internal/models"
)

// stubRenewalStore implements RenewalStore in memory. ResetCycleUsage mirrors
// the conditional update of the production store: it refuses users whose
// last renewal already falls inside the current cycle.
type stubRenewalStore struct {
	users       []models.User
	resetErrs   map[uuid.UUID]error
	appendErr   error
	resetCalls  int
	appended    []*models.CreditTransaction
	lastRenewed map[uuid.UUID]time.Time
}

func newStubRenewalStore(users ...models.User) *stubRenewalStore {
	s := &stubRenewalStore{
		users:       users,
		resetErrs:   map[uuid.UUID]error{},
		lastRenewed: map[uuid.UUID]time.Time{},
	}
	for _, u := range users {
		if u.LastRenewedAt != nil {
			s.lastRenewed[u.ID] = *u.LastRenewedAt
		}
	}
	return s
}

func (s *stubRenewalStore) SubscribedUsers(_ context.Context, batchSize int, fn func(users []models.User) error) error {
	for start := 0; start < len(s.users); start += batchSize {
		end := start + batchSize
		if end > len(s.users) {
			end = len(s.users)
		}
		if err := fn(s.users[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRenewalStore) ResetCycleUsage(_ context.Context, userID uuid.UUID, cycleStart, renewedAt time.Time) (bool, error) {
	s.resetCalls++
	if err := s.resetErrs[userID]; err != nil {
		return false, err
	}
	if last, ok := s.lastRenewed[userID]; ok && !last.Before(cycleStart) {
		return false, nil
	}
	s.lastRenewed[userID] = renewedAt
	return true, nil
}

func (s *stubRenewalStore) AppendRenewal(_ context.Context, entry *models.CreditTransaction) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, entry)
	return nil
}

func testRenewalService(store RenewalStore, now time.Time) *RenewalService {
	svc := NewRenewalService(store, NewCreditsService(nil, credits.NewBalanceCache(time.Minute)), 100)
	svc.now = func() time.Time { return now }
	return svc
}

func monthlyUser(anchor time.Time, lastRenewed *time.Time, limit, used, balance int) models.User {
	return models.User{
		ID:                   uuid.New(),
		AppID:                "vibephoto",
		Plan:                 models.PlanMonthly,
		SubscriptionStatus:   models.SubscriptionActive,
		SubscriptionAnchorAt: &anchor,
		LastRenewedAt:        lastRenewed,
		CreditsLimit:         &limit,
		CreditsUsed:          &used,
		CreditsBalance:       &balance,
	}
}

func TestRenewalRunRenewsDueUser(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	lastRenewed := time.Date(2025, time.March, 15, 3, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.April, 15, 3, 0, 0, 0, time.UTC)

	user := monthlyUser(anchor, &lastRenewed, 100, 80, 25)
	store := newStubRenewalStore(user)
	svc := testRenewalService(store, now)

	summary, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TotalProcessed)
	assert.Equal(t, 1, summary.TotalRenewed)
	assert.Equal(t, 0, summary.TotalSkipped)
	assert.Equal(t, []uuid.UUID{user.ID}, summary.RenewedUserIDs)

	// Ledger entry credits the full allowance; purchased balance carries over.
	assert.Len(t, store.appended, 1)
	entry := store.appended[0]
	assert.Equal(t, models.TransactionCredit, entry.Type)
	assert.Equal(t, models.SourceRenewal, entry.Source)
	assert.Equal(t, 100, entry.Amount)
	assert.Equal(t, 125, entry.BalanceAfter)
}

func TestRenewalRunIsIdempotentPerCycle(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.April, 15, 3, 0, 0, 0, time.UTC)
	lastRenewed := time.Date(2025, time.March, 15, 3, 0, 0, 0, time.UTC)

	store := newStubRenewalStore(monthlyUser(anchor, &lastRenewed, 100, 50, 0))
	svc := testRenewalService(store, now)

	first, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, first.TotalRenewed)

	// The store now carries the in-cycle renewal stamp even though the
	// in-memory user snapshot does not, mirroring a concurrent second run.
	second, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, second.TotalRenewed)
	assert.Equal(t, 1, second.TotalSkipped)
	assert.Equal(t, "already renewed this cycle", second.SkippedUsers[0].Reason)
	assert.Len(t, store.appended, 1)
}

func TestRenewalRunSkipReasons(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)

	yearly := monthlyUser(anchor, nil, 1200, 0, 0)
	yearly.Plan = models.PlanYearly

	pastDue := monthlyUser(anchor, nil, 100, 0, 0)
	pastDue.SubscriptionStatus = models.SubscriptionPastDue

	noAnchor := monthlyUser(anchor, nil, 100, 0, 0)
	noAnchor.SubscriptionAnchorAt = nil

	renewedToday := time.Date(2025, time.April, 15, 3, 0, 0, 0, time.UTC)
	notDue := monthlyUser(anchor, &renewedToday, 100, 0, 0)

	store := newStubRenewalStore(yearly, pastDue, noAnchor, notDue)
	svc := testRenewalService(store, now)

	summary, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 4, summary.TotalProcessed)
	assert.Equal(t, 0, summary.TotalRenewed)
	assert.Equal(t, 4, summary.TotalSkipped)

	reasons := make(map[uuid.UUID]string, len(summary.SkippedUsers))
	for _, s := range summary.SkippedUsers {
		reasons[s.UserID] = s.Reason
	}
	assert.Equal(t, "plan is not monthly", reasons[yearly.ID])
	assert.Equal(t, "subscription is not active", reasons[pastDue.ID])
	assert.Equal(t, "no subscription anchor date", reasons[noAnchor.ID])
	assert.Equal(t, "not due for renewal", reasons[notDue.ID])

	// Nothing reached the store.
	assert.Equal(t, 0, store.resetCalls)
}

func TestRenewalRunIsolatesFailures(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.April, 15, 3, 0, 0, 0, time.UTC)
	lastRenewed := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	failing := monthlyUser(anchor, &lastRenewed, 100, 0, 0)
	healthy := monthlyUser(anchor, &lastRenewed, 100, 0, 0)

	store := newStubRenewalStore(failing, healthy)
	store.resetErrs[failing.ID] = errors.New("deadlock detected")
	svc := testRenewalService(store, now)

	summary, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.TotalProcessed)
	assert.Equal(t, 1, summary.TotalRenewed)
	assert.Equal(t, 1, summary.TotalSkipped)
	assert.Equal(t, []uuid.UUID{healthy.ID}, summary.RenewedUserIDs)
	assert.Contains(t, summary.SkippedUsers[0].Reason, "renewal failed")
}

func TestRenewalRunSurvivesLedgerWriteFailure(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.April, 15, 3, 0, 0, 0, time.UTC)
	lastRenewed := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	store := newStubRenewalStore(monthlyUser(anchor, &lastRenewed, 100, 0, 0))
	store.appendErr = errors.New("connection reset")
	svc := testRenewalService(store, now)

	// The usage reset already happened; a failed audit write must not mark
	// the user as skipped.
	summary, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRenewed)
	assert.Equal(t, 0, summary.TotalSkipped)
}

func TestRenewalRunBatches(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.April, 15, 3, 0, 0, 0, time.UTC)
	lastRenewed := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	users := make([]models.User, 5)
	for i := range users {
		users[i] = monthlyUser(anchor, &lastRenewed, 100, 0, 0)
	}
	store := newStubRenewalStore(users...)
	svc := testRenewalService(store, now)
	svc.batchSize = 2

	summary, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 5, summary.TotalProcessed)
	assert.Equal(t, 5, summary.TotalRenewed)
}
