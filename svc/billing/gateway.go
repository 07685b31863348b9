// Package billing wraps the Stripe API behind a Gateway interface so
// controllers and tests depend on behavior rather than on the SDK, and
// interprets inbound Stripe webhook events.
package billing

import (
	"context"
	"time"
)

// MetadataKeyAccountID is set on checkout sessions so the completion
// webhook can correlate the Stripe object back to the local account.
const MetadataKeyAccountID = "userId"

// Subscription is the local projection of a provider subscription. Only the
// fields the cancellation flows need are kept.
type Subscription struct {
	ID                string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}

// Gateway is the payment-provider surface used by the account controller.
// Every call is a synchronous provider round-trip bounded by the configured
// call timeout.
type Gateway interface {
	// CreateCheckoutSession starts a subscription-mode checkout for the
	// fixed premium price and returns the provider session id.
	CreateCheckoutSession(ctx context.Context, accountEmail string, accountID int64, baseURL string) (string, error)

	// CreateCardUpdateSession starts a setup-mode checkout scoped to an
	// existing billing customer.
	CreateCardUpdateSession(ctx context.Context, customerID, baseURL string) (string, error)

	// ListSubscriptions returns the customer's subscriptions in provider
	// default order.
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)

	// CancelSubscriptions hard-cancels each subscription immediately.
	CancelSubscriptions(ctx context.Context, subs []Subscription) error

	// CancelSubscriptionAtPeriodEnd marks the customer's first subscription
	// to end at the period boundary. Returns (false, nil) when the customer
	// has no subscriptions.
	CancelSubscriptionAtPeriodEnd(ctx context.Context, customerID string) (bool, error)

	// GetDefaultPaymentMethodID returns the customer's invoice-settings
	// default payment method id.
	GetDefaultPaymentMethodID(ctx context.Context, customerID string) (string, error)

	// DetachPaymentMethod unlinks a stored payment method from its customer.
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
}

type Config struct {
	SecretKey     string        `env:"STRIPE_SECRET_KEY,required"`     // SecretKey authenticates API calls; never logged.
	WebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET,required"` // WebhookSecret verifies inbound event signatures.
	CallTimeout   time.Duration `env:"STRIPE_CALL_TIMEOUT" envDefault:"15s"` // CallTimeout bounds each provider round-trip.

	PremiumPriceAmount   int64  `env:"PREMIUM_PRICE_AMOUNT" envDefault:"300"`                 // PremiumPriceAmount in the currency's smallest unit.
	PremiumPriceCurrency string `env:"PREMIUM_PRICE_CURRENCY" envDefault:"jpy"`               // PremiumPriceCurrency is the fixed billing currency.
	PremiumPlanName      string `env:"PREMIUM_PLAN_NAME" envDefault:"Monthly premium plan"`   // PremiumPlanName appears on the Stripe checkout page.
}
