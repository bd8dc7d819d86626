package dto

import (
	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/credits"
	"github.com/vibelabs/vibephoto-backend/internal/models"
)

type BalanceResponse struct {
	CreditsLimit   int `json:"credits_limit"`
	CreditsUsed    int `json:"credits_used"`
	CreditsBalance int `json:"credits_balance"`
	Available      int `json:"available"`
}

type TransactionListResponse struct {
	Items []models.CreditTransaction `json:"items"`
	credits.Page
}

type AdjustCreditsRequest struct {
	UserID uuid.UUID `json:"user_id"`
	// Positive adds, negative removes.
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

type CheckoutPackageRequest struct {
	PackageID uuid.UUID `json:"package_id"`
}

type UpsertPackageRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Credits     int    `json:"credits"`
	PriceCents  int    `json:"price_cents"`
	Currency    string `json:"currency"`
	IsActive    *bool  `json:"is_active"`
}

type SkippedUser struct {
	UserID uuid.UUID `json:"user_id"`
	Reason string    `json:"reason"`
}

// RenewalSummary is the result of one renewal sweep, whether triggered by the
// scheduler or by an admin.
type RenewalSummary struct {
	TotalProcessed int           `json:"total_processed"`
	TotalRenewed   int           `json:"total_renewed"`
	TotalSkipped   int           `json:"total_skipped"`
	RenewedUserIDs []uuid.UUID   `json:"renewed_user_ids"`
	SkippedUsers   []SkippedUser `json:"skipped_users"`
}
