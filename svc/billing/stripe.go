package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// StripeGateway implements Gateway with the official Stripe SDK.
type StripeGateway struct {
	client *client.API
	cfg    Config
	log    *slog.Logger
}

func NewStripeGateway(cfg Config, log *slog.Logger) *StripeGateway {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	return &StripeGateway{
		client: sc,
		cfg:    cfg,
		log:    log,
	}
}

// callContext bounds a single provider round-trip so a stalled call cannot
// hold a request worker past the configured timeout.
func (g *StripeGateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.cfg.CallTimeout)
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, accountEmail string, accountID int64, baseURL string) (string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	successURL, cancelURL := checkoutReturnURLs(baseURL)

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{string(stripe.PaymentMethodTypeCard)}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.cfg.PremiumPriceCurrency),
				UnitAmount: stripe.Int64(g.cfg.PremiumPriceAmount),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
				},
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(g.cfg.PremiumPlanName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
		CustomerEmail: stripe.String(accountEmail),
	}
	params.AddMetadata(MetadataKeyAccountID, strconv.FormatInt(accountID, 10))

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return "", g.wrapErr("create checkout session", err)
	}
	return session.ID, nil
}

func (g *StripeGateway) CreateCardUpdateSession(ctx context.Context, customerID, baseURL string) (string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	successURL, cancelURL := cardUpdateReturnURLs(baseURL)

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{string(stripe.PaymentMethodTypeCard)}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSetup)),
		Customer:           stripe.String(customerID),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
	}

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return "", g.wrapErrAs("create card update session", err, ErrCustomerNotFound)
	}
	return session.ID, nil
}

func (g *StripeGateway) ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var subs []Subscription
	iter := g.client.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, newSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, g.wrapErr("list subscriptions", err)
	}
	return subs, nil
}

func (g *StripeGateway) CancelSubscriptions(ctx context.Context, subs []Subscription) error {
	for _, sub := range subs {
		ctx, cancel := g.callContext(ctx)
		_, err := g.client.Subscriptions.Cancel(sub.ID, &stripe.SubscriptionCancelParams{
			Params: stripe.Params{Context: ctx},
		})
		cancel()
		if err != nil {
			return g.wrapErr("cancel subscription "+sub.ID, err)
		}
	}
	return nil
}

func (g *StripeGateway) CancelSubscriptionAtPeriodEnd(ctx context.Context, customerID string) (bool, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("subscriptions")

	customer, err := g.client.Customers.Get(customerID, params)
	if err != nil {
		return false, g.wrapErrAs("retrieve customer", err, ErrCustomerNotFound)
	}
	if customer.Subscriptions == nil || len(customer.Subscriptions.Data) == 0 {
		return false, nil
	}

	// Provider default order; the product assumes one subscription per
	// customer, so the first entry is the effective plan.
	sub := customer.Subscriptions.Data[0]
	_, err = g.client.Subscriptions.Update(sub.ID, &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return false, g.wrapErr("schedule cancellation", err)
	}
	return true, nil
}

func (g *StripeGateway) GetDefaultPaymentMethodID(ctx context.Context, customerID string) (string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	customer, err := g.client.Customers.Get(customerID, &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", g.wrapErrAs("retrieve customer", err, ErrCustomerNotFound)
	}
	if customer.InvoiceSettings == nil || customer.InvoiceSettings.DefaultPaymentMethod == nil {
		return "", fmt.Errorf("%w: customer %s", ErrNoDefaultPaymentMethod, customerID)
	}
	return customer.InvoiceSettings.DefaultPaymentMethod.ID, nil
}

func (g *StripeGateway) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	_, err := g.client.PaymentMethods.Detach(paymentMethodID, &stripe.PaymentMethodDetachParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return g.wrapErrAs("detach payment method", err, ErrPaymentMethodNotFound)
	}
	return nil
}

func newSubscription(sub *stripe.Subscription) Subscription {
	return Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
}

// wrapErrAs folds provider errors into the package taxonomy; resource-missing
// codes become the given typed not-found error, everything else ErrProvider.
func (g *StripeGateway) wrapErrAs(op string, err error, missing error) error {
	if isResourceMissing(err) {
		return fmt.Errorf("%w: %s", missing, op)
	}

	g.log.Error("stripe call failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrProvider, op, err)
}

func (g *StripeGateway) wrapErr(op string, err error) error {
	return g.wrapErrAs(op, err, ErrProvider)
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}

var _ Gateway = (*StripeGateway)(nil)
