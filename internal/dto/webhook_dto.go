package dto

// Asaas-style payment gateway webhook payload. Only the fields the
// reconciliation logic reads are mapped.

type GatewayWebhook struct {
	Event   string         `json:"event"`
	Payment GatewayPayment `json:"payment"`
}

type GatewayPayment struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	// Gateway subscription ID, empty for one-off charges.
	Subscription string  `json:"subscription"`
	ProductID    string  `json:"product_id"`
	Value        float64 `json:"value"`
	BillingType  string  `json:"billingType"`
	Status       string  `json:"status"`
	// Set by us at checkout: the user ID for subscription charges, or the
	// pending CreditPurchase ID for package charges.
	ExternalReference string `json:"externalReference"`
	PaymentDate       string `json:"paymentDate"`
}

// Webhook event names sent by the gateway.
const (
	EventPaymentConfirmed      = "PAYMENT_CONFIRMED"
	EventPaymentReceived       = "PAYMENT_RECEIVED"
	EventPaymentOverdue        = "PAYMENT_OVERDUE"
	EventPaymentRefunded       = "PAYMENT_REFUNDED"
	EventSubscriptionCancelled = "SUBSCRIPTION_CANCELLED"
)
