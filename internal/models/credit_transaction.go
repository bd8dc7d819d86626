package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

type TransactionSource string

const (
	SourceSubscriptionGrant TransactionSource = "subscription_grant"
	SourcePurchase          TransactionSource = "purchase"
	SourceConsumption       TransactionSource = "consumption"
	SourceRenewal           TransactionSource = "renewal"
	SourceAdminAdjustment   TransactionSource = "admin_adjustment"
)

// CreditTransaction is the append-only audit record of a single
// credit-affecting event. Rows are never updated or deleted.
type CreditTransaction struct {
	ID     uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AppID  string            `gorm:"size:50;not null;index" json:"-"`
	UserID uuid.UUID         `gorm:"type:uuid;not null;index:idx_credit_tx_user_created" json:"user_id"`
	Type   TransactionType   `gorm:"size:10;not null" json:"type"`
	Source TransactionSource `gorm:"size:30;not null;index" json:"source"`
	// Amount is always positive; direction comes from Type.
	Amount      int    `gorm:"not null" json:"amount"`
	Description string `gorm:"size:500" json:"description"`
	// ReferenceID links to the generation, gateway payment or purchase that
	// caused the event. Used for idempotent webhook reconciliation.
	ReferenceID string `gorm:"size:255;index" json:"reference_id,omitempty"`
	// Snapshot of the available balance right after this event was applied.
	BalanceAfter int            `gorm:"not null" json:"balance_after"`
	Metadata     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"index:idx_credit_tx_user_created,sort:desc" json:"created_at"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
}
