package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/credits"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/models"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
	"gorm.io/gorm"
)

var (
	ErrUnknownProduct  = errors.New("no plan configured for product")
	ErrPurchaseMissing = errors.New("no pending purchase for payment")
)

// SubscriptionService reconciles payment-gateway webhook events into
// subscription state and credit grants. Processing is idempotent per gateway
// payment ID: replayed deliveries are acknowledged without effect.
type SubscriptionService struct {
	db         *gorm.DB
	registry   *tenant.Registry
	creditsSvc *CreditsService
}

func NewSubscriptionService(db *gorm.DB, registry *tenant.Registry, creditsSvc *CreditsService) *SubscriptionService {
	return &SubscriptionService{db: db, registry: registry, creditsSvc: creditsSvc}
}

func (s *SubscriptionService) HandleWebhookEvent(appID string, hook *dto.GatewayWebhook) error {
	switch hook.Event {
	case dto.EventPaymentConfirmed, dto.EventPaymentReceived:
		return s.handlePaymentConfirmed(appID, &hook.Payment)
	case dto.EventPaymentOverdue:
		return s.setSubscriptionStatus(appID, &hook.Payment, models.SubscriptionPastDue)
	case dto.EventPaymentRefunded, dto.EventSubscriptionCancelled:
		return s.setSubscriptionStatus(appID, &hook.Payment, models.SubscriptionCancelled)
	default:
		return nil
	}
}

func (s *SubscriptionService) handlePaymentConfirmed(appID string, payment *dto.GatewayPayment) error {
	if payment.Subscription != "" {
		return s.applySubscriptionPayment(appID, payment)
	}
	return s.applyPackagePayment(appID, payment)
}

// applySubscriptionPayment activates (or re-activates) the user's plan and
// grants the cycle allowance.
func (s *SubscriptionService) applySubscriptionPayment(appID string, payment *dto.GatewayPayment) error {
	seen, err := s.creditsSvc.HasTransactionReference(appID, payment.ID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	plan, ok := s.registry.PlanForProduct(appID, payment.ProductID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, payment.ProductID)
	}

	user, err := s.resolveUser(appID, payment)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	paidAt := paymentDate(payment, now)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"plan":                plan.Plan,
			"subscription_status": models.SubscriptionActive,
			"credits_limit":       plan.Credits,
			"credits_used":        0,
			"last_renewed_at":     now,
			"gateway_customer_id": payment.Customer,
		}
		if user.SubscriptionAnchorAt == nil {
			updates["subscription_anchor_at"] = paidAt
		}
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}

		anchor := paidAt
		if user.SubscriptionAnchorAt != nil {
			anchor = *user.SubscriptionAnchorAt
		}
		sub := models.Subscription{
			ID:                    uuid.New(),
			AppID:                 appID,
			UserID:                user.ID,
			GatewaySubscriptionID: payment.Subscription,
			GatewayCustomerID:     payment.Customer,
			ProductID:             payment.ProductID,
			Status:                string(models.SubscriptionActive),
			CurrentPeriodStart:    credits.CycleStart(anchor, now),
			CurrentPeriodEnd:      credits.NextRenewal(anchor, now),
		}
		if err := tx.Where("gateway_subscription_id = ?", payment.Subscription).
			Assign(map[string]interface{}{
				"status":               sub.Status,
				"product_id":           sub.ProductID,
				"current_period_start": sub.CurrentPeriodStart,
				"current_period_end":   sub.CurrentPeriodEnd,
			}).
			FirstOrCreate(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription record: %w", err)
		}

		granted, err := s.creditsSvc.reload(tx, appID, user.ID)
		if err != nil {
			return err
		}
		_, err = s.creditsSvc.record(tx, granted, models.TransactionCredit, models.SourceSubscriptionGrant,
			plan.Credits, "subscription cycle grant", payment.ID, nil)
		return err
	})
	if err != nil {
		return err
	}

	s.creditsSvc.Invalidate(appID, user.ID)
	return nil
}

// applyPackagePayment flips the pending checkout to paid and adds the
// purchased credits. The pending→paid conditional update is the idempotency
// barrier for replayed webhooks.
func (s *SubscriptionService) applyPackagePayment(appID string, payment *dto.GatewayPayment) error {
	var purchase models.CreditPurchase
	query := s.db.Scopes(tenant.ForTenant(appID))
	if payment.ExternalReference != "" {
		query = query.Where("id = ?", payment.ExternalReference)
	} else {
		query = query.Where("gateway_payment_id = ?", payment.ID)
	}
	if err := query.First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: payment %s", ErrPurchaseMissing, payment.ID)
		}
		return fmt.Errorf("failed to load purchase: %w", err)
	}

	res := s.db.Model(&models.CreditPurchase{}).
		Where("id = ? AND status = ?", purchase.ID, models.PurchasePending).
		Updates(map[string]interface{}{
			"status":             models.PurchasePaid,
			"gateway_payment_id": payment.ID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark purchase paid: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Already reconciled by an earlier delivery.
		return nil
	}

	_, err := s.creditsSvc.AddPurchased(appID, purchase.UserID, purchase.Credits, payment.ID, "credit package purchase")
	return err
}

func (s *SubscriptionService) setSubscriptionStatus(appID string, payment *dto.GatewayPayment, status models.SubscriptionStatus) error {
	user, err := s.resolveUser(appID, payment)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("subscription_status", status).Error; err != nil {
			return fmt.Errorf("failed to update subscription status: %w", err)
		}
		if payment.Subscription != "" {
			if err := tx.Model(&models.Subscription{}).
				Scopes(tenant.ForTenant(appID)).
				Where("gateway_subscription_id = ?", payment.Subscription).
				Update("status", string(status)).Error; err != nil {
				return fmt.Errorf("failed to update subscription record: %w", err)
			}
		}
		return nil
	})
}

// resolveUser finds the webhook's subject: by our user ID in the external
// reference when the checkout set one, otherwise by the gateway customer ID.
func (s *SubscriptionService) resolveUser(appID string, payment *dto.GatewayPayment) (*models.User, error) {
	var user models.User
	if payment.ExternalReference != "" {
		if id, err := uuid.Parse(payment.ExternalReference); err == nil {
			if err := s.db.Scopes(tenant.ForTenant(appID)).First(&user, "id = ?", id).Error; err == nil {
				return &user, nil
			}
		}
	}
	if payment.Customer != "" {
		if err := s.db.Scopes(tenant.ForTenant(appID)).
			Where("gateway_customer_id = ?", payment.Customer).
			First(&user).Error; err == nil {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func paymentDate(payment *dto.GatewayPayment, fallback time.Time) time.Time {
	if payment.PaymentDate == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", payment.PaymentDate)
	if err != nil {
		return fallback
	}
	return t
}
