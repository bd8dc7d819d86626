package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionPlan string

const (
	PlanMonthly SubscriptionPlan = "monthly"
	PlanYearly  SubscriptionPlan = "yearly"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionNone      SubscriptionStatus = "none"
)

// User carries the per-cycle credit counters directly on the row so balance
// reads are a single lookup. The counters are nullable: rows created before
// metering existed have NULL columns, normalized to zero at the read boundary.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AppID        string    `gorm:"size:50;not null;uniqueIndex:idx_users_app_email" json:"-"`
	Email        string    `gorm:"not null;size:255;uniqueIndex:idx_users_app_email" json:"email"`
	Password     string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:20;default:'user'" json:"role"`
	AuthProvider string    `gorm:"size:50;default:'email'" json:"-"`

	// Subscription-cycle allowance and consumption; used is reset each cycle.
	CreditsLimit *int `gorm:"default:0" json:"credits_limit"`
	CreditsUsed  *int `gorm:"default:0" json:"credits_used"`
	// Purchased credits, never touched by the monthly reset.
	CreditsBalance *int `gorm:"default:0" json:"credits_balance"`

	Plan               SubscriptionPlan   `gorm:"size:20;default:'';index" json:"plan"`
	SubscriptionStatus SubscriptionStatus `gorm:"size:20;default:'none';index" json:"subscription_status"`
	// Day-of-month the renewal cycle is anchored to (subscription start).
	SubscriptionAnchorAt *time.Time `json:"subscription_anchor_at"`
	// At-most-once renewal guard, written atomically with the cycle reset.
	LastRenewedAt *time.Time `json:"last_renewed_at"`

	GatewayCustomerID string `gorm:"size:255;index" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
