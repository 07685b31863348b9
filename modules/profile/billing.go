package profile

import (
	"errors"
	"net/http"

	"github.com/meshiya/membership/svc/billing"
)

func (s *Service) upgrade(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}

	sessionID, err := s.gateway.CreateCheckoutSession(r.Context(), acc.Email, acc.ID, requestBaseURL(r))
	if err != nil {
		s.log.ErrorContext(r.Context(), "checkout session creation failed",
			"account_id", acc.ID, "error", err)
		_ = s.sessions.Flash(r.Context(), w, r, "error", "Could not start the upgrade. Please try again.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	render(w, r, s.views.Upgrade(CheckoutParams{
		SessionID: sessionID,
		AccountID: acc.ID,
	}))
}

func (s *Service) updateCard(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	if acc.StripeCustomerID == "" {
		_ = s.sessions.Flash(r.Context(), w, r, "error", "No billing profile on record. Upgrade first.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	sessionID, err := s.gateway.CreateCardUpdateSession(r.Context(), acc.StripeCustomerID, requestBaseURL(r))
	if err != nil {
		s.log.ErrorContext(r.Context(), "card update session creation failed",
			"account_id", acc.ID, "error", err)
		_ = s.sessions.Flash(r.Context(), w, r, "error", "Could not start the card update. Please try again.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	render(w, r, s.views.UpdateCard(CheckoutParams{
		SessionID: sessionID,
		AccountID: acc.ID,
	}))
}

func (s *Service) downgrade(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}

	customerID := acc.StripeCustomerID
	if customerID == "" {
		customerID = "unregistered"
	}
	render(w, r, s.views.Downgrade(DowngradeParams{
		StripeCustomerID: customerID,
	}))
}

// cancelRenewal schedules the subscription to lapse at the period end
// instead of cutting it off immediately. The role stays premium for the
// remainder of the paid period.
func (s *Service) cancelRenewal(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if acc.StripeCustomerID == "" {
		_ = s.sessions.Flash(ctx, w, r, "error", "You have no active subscription.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	scheduled, err := s.gateway.CancelSubscriptionAtPeriodEnd(ctx, acc.StripeCustomerID)
	if err != nil {
		s.log.ErrorContext(ctx, "period-end cancellation failed",
			"account_id", acc.ID, "error", err)
		_ = s.sessions.Flash(ctx, w, r, "error", "Could not schedule the cancellation. Please try again.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}
	if !scheduled {
		_ = s.sessions.Flash(ctx, w, r, "error", "You have no active subscription.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	_ = s.sessions.Flash(ctx, w, r, "success", "Your premium plan will end at the close of the current billing period.")
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

// cancel runs the full downgrade sequence: cancel every subscription,
// detach the default payment method, then reset the account to the free
// tier. The role reset happens once the subscriptions are gone, even if
// the detach step fails, so billing state and role cannot diverge.
func (s *Service) cancel(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if acc.StripeCustomerID == "" {
		_ = s.sessions.Flash(ctx, w, r, "error", "You have no active subscription.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	subs, err := s.gateway.ListSubscriptions(ctx, acc.StripeCustomerID)
	if err != nil {
		s.failCancel(w, r, acc.ID, "list subscriptions", err)
		return
	}
	if len(subs) == 0 {
		// Nothing to cancel is an outcome, not an error; the role stays.
		_ = s.sessions.Flash(ctx, w, r, "error", "You have no active subscription.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	if err := s.gateway.CancelSubscriptions(ctx, subs); err != nil {
		s.failCancel(w, r, acc.ID, "cancel subscriptions", err)
		return
	}

	// Past this point the subscriptions are gone at the provider, so the
	// local role must come down no matter how the cleanup below fares.
	pmID, err := s.gateway.GetDefaultPaymentMethodID(ctx, acc.StripeCustomerID)
	switch {
	case err == nil:
		if err := s.gateway.DetachPaymentMethod(ctx, pmID); err != nil {
			s.log.ErrorContext(ctx, "payment method detach failed after cancellation",
				"account_id", acc.ID, "payment_method_id", pmID, "error", err)
		}
	case errors.Is(err, billing.ErrNoDefaultPaymentMethod):
		// Nothing stored to detach.
	default:
		s.log.ErrorContext(ctx, "default payment method lookup failed after cancellation",
			"account_id", acc.ID, "error", err)
	}

	if err := s.accounts.Downgrade(ctx, acc.ID); err != nil {
		s.log.ErrorContext(ctx, "role downgrade failed after cancellation",
			"account_id", acc.ID, "error", err)
		_ = s.sessions.Flash(ctx, w, r, "error", "Cancellation succeeded but your account needs attention. Contact support.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	_ = s.sessions.Flash(ctx, w, r, "success", "Your premium plan was cancelled.")
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

func (s *Service) failCancel(w http.ResponseWriter, r *http.Request, accountID int64, step string, err error) {
	s.log.ErrorContext(r.Context(), "subscription cancellation failed",
		"account_id", accountID, "step", step, "error", err)
	_ = s.sessions.Flash(r.Context(), w, r, "error", "Could not cancel your plan. Please try again.")
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}
