// Package webhook terminates Stripe webhook deliveries: it reads the raw
// payload, lets the billing handler verify the signature, and translates
// the outcome to a delivery status code.
package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meshiya/membership/svc/billing"
)

// maxPayloadBytes bounds the request body; Stripe events are small and an
// oversized payload is either misrouted or hostile.
const maxPayloadBytes = 64 << 10

type Handler struct {
	events *billing.WebhookHandler
	log    *slog.Logger
}

func NewHandler(events *billing.WebhookHandler, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{events: events, log: log}
}

func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/stripe", h.stripe)
	return r
}

// stripe answers 200 for processed and skipped events alike; only
// signature failures and internal errors make Stripe retry the delivery.
func (h *Handler) stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.events.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, billing.ErrInvalidSignature), errors.Is(err, billing.ErrMalformedEvent):
		h.log.WarnContext(r.Context(), "webhook rejected", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	default:
		h.log.ErrorContext(r.Context(), "webhook processing failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
