package profile

import (
	"errors"
	"net/http"

	"github.com/meshiya/membership/pkg/binder"
	"github.com/meshiya/membership/pkg/session"
	"github.com/meshiya/membership/svc/account"
)

func (s *Service) index(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}

	flashes := s.sessions.PopFlashes(r.Context(), r)
	// The card-update checkout returns to /user?success=true.
	var q struct {
		Success bool `query:"success"`
	}
	if err := binder.Query()(r, &q); err == nil && q.Success {
		flashes = append(flashes, session.Flash{Kind: "success", Message: "Your card details were updated."})
	}

	render(w, r, s.views.Profile(ProfileParams{
		Account:       acc,
		IsPremiumUser: acc.IsPremium(),
		Flashes:       flashes,
	}))
}

func (s *Service) edit(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}

	render(w, r, s.views.Edit(EditParams{
		Form: account.EditForm{
			ID:          acc.ID,
			Email:       acc.Email,
			Name:        acc.Name,
			Furigana:    acc.Furigana,
			PhoneNumber: acc.PhoneNumber,
			Address:     acc.Address,
			Age:         acc.Age,
			Occupation:  acc.Occupation,
		},
		IsPremiumUser:    acc.IsPremium(),
		StripeCustomerID: acc.StripeCustomerID,
	}))
}

func (s *Service) update(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.currentAccount(w, r)
	if !ok {
		return
	}

	var form account.EditForm
	if err := binder.Form()(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	// The account being edited is always the session's own, regardless of
	// what the form claims.
	form.ID = acc.ID

	fieldErrs := form.Validate()
	if fieldErrs.Empty() {
		switch err := s.accounts.Update(r.Context(), form); {
		case err == nil:
			_ = s.sessions.Flash(r.Context(), w, r, "success", "Your profile was updated.")
			http.Redirect(w, r, "/user", http.StatusSeeOther)
			return
		case errors.Is(err, account.ErrEmailTaken):
			fieldErrs["email"] = "this email address is already registered"
		default:
			s.log.ErrorContext(r.Context(), "profile update failed",
				"account_id", acc.ID, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	render(w, r, s.views.Edit(EditParams{
		Form:             form,
		Errors:           fieldErrs,
		IsPremiumUser:    acc.IsPremium(),
		StripeCustomerID: acc.StripeCustomerID,
	}))
}

type roleForm struct {
	AccountID int64  `form:"account_id"`
	Role      string `form:"role"`
}

// setRole is the administrative role override. RequireAdmin guards the
// route; unauthorized sessions never reach this handler.
func (s *Service) setRole(w http.ResponseWriter, r *http.Request) {
	var form roleForm
	if err := binder.Form()(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := s.accounts.SetRole(r.Context(), form.AccountID, account.Role(form.Role)); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, account.ErrInvalidRole):
			status = http.StatusBadRequest
		case errors.Is(err, account.ErrNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	_ = s.sessions.Flash(r.Context(), w, r, "success", "Role updated.")
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

func (s *Service) delete(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	if err := s.accounts.Delete(r.Context(), sess.AccountID); err != nil {
		s.log.ErrorContext(r.Context(), "account deletion failed",
			"account_id", sess.AccountID, "error", err)
		_ = s.sessions.Flash(r.Context(), w, r, "error", "Could not delete your account. Please try again.")
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	if err := s.sessions.Logout(r.Context(), w, r); err != nil {
		s.log.ErrorContext(r.Context(), "logout after deletion failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
