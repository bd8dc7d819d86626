package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditPackage is an à la carte bundle of non-expiring credits sold outside
// the subscription.
type CreditPackage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AppID       string    `gorm:"size:50;not null;index" json:"-"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Credits     int       `gorm:"not null" json:"credits"`
	PriceCents  int       `gorm:"not null" json:"price_cents"`
	Currency    string    `gorm:"size:3;default:'BRL'" json:"currency"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	PurchasePending = "pending"
	PurchasePaid    = "paid"
	PurchaseFailed  = "failed"
)

// CreditPurchase tracks a checkout for a credit package. Created pending when
// the user starts checkout; flipped to paid by the gateway webhook, which is
// when the credits are actually added. The unique gateway payment ID makes the
// webhook reconciliation idempotent.
type CreditPurchase struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AppID            string    `gorm:"size:50;not null;index" json:"-"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID        uuid.UUID `gorm:"type:uuid;not null" json:"package_id"`
	Credits          int       `gorm:"not null" json:"credits"`
	PriceCents       int       `gorm:"not null" json:"price_cents"`
	GatewayPaymentID string    `gorm:"size:255;uniqueIndex" json:"gateway_payment_id"`
	Status           string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	Package          CreditPackage `gorm:"foreignKey:PackageID" json:"-"`
}
