package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

// AccountUpgrader applies a completed checkout to the local account. The
// event id keys idempotent application since Stripe may redeliver events.
type AccountUpgrader interface {
	SaveCustomerIDAndUpgrade(ctx context.Context, eventID string, accountID int64, customerID string) error
}

// WebhookHandler verifies and interprets inbound Stripe events.
type WebhookHandler struct {
	secret   string
	accounts AccountUpgrader
	log      *slog.Logger
}

func NewWebhookHandler(cfg Config, accounts AccountUpgrader, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &WebhookHandler{
		secret:   cfg.WebhookSecret,
		accounts: accounts,
		log:      log,
	}
}

// HandleEvent verifies the Stripe-Signature header against the raw payload
// and dispatches the event. Signature failures return ErrInvalidSignature;
// event types without a handler are acknowledged without action.
func (h *WebhookHandler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	// Stripe pins each webhook endpoint to an API version; ignoring the
	// mismatch keeps older replayed events processable.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return errors.Join(ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutCompleted(ctx, &event)
	default:
		h.log.DebugContext(ctx, "unhandled stripe event type", "type", event.Type)
		return nil
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	if len(event.Data.Raw) == 0 {
		h.log.WarnContext(ctx, "checkout event carries no object", "event_id", event.ID)
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}

	if sess.Status != stripe.CheckoutSessionStatusComplete {
		h.log.InfoContext(ctx, "checkout session not complete, skipping",
			"event_id", event.ID, "status", string(sess.Status))
		return nil
	}
	if sess.Metadata == nil {
		h.log.WarnContext(ctx, "checkout session has no metadata", "event_id", event.ID)
		return nil
	}

	rawAccountID, ok := sess.Metadata[MetadataKeyAccountID]
	if !ok {
		h.log.WarnContext(ctx, "checkout session metadata missing account id",
			"event_id", event.ID)
		return nil
	}
	accountID, err := strconv.ParseInt(rawAccountID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad account id %q", ErrMalformedEvent, rawAccountID)
	}

	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("%w: completed session without customer", ErrMalformedEvent)
	}

	return h.accounts.SaveCustomerIDAndUpgrade(ctx, event.ID, accountID, sess.Customer.ID)
}
