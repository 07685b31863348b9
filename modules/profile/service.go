// Package profile exposes the member-facing pages under /user: profile,
// edit, the upgrade and card-update checkout flows, cancellation and
// account deletion.
package profile

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/meshiya/membership/pkg/session"
	"github.com/meshiya/membership/svc/account"
	"github.com/meshiya/membership/svc/billing"
)

// Service wires the account pages to the domain services. Views are
// injected so the module stays renderer-agnostic.
type Service struct {
	accounts *account.Service
	gateway  billing.Gateway
	sessions *session.Manager
	views    *Views
	log      *slog.Logger
}

func NewService(
	accounts *account.Service,
	gateway billing.Gateway,
	sessions *session.Manager,
	views *Views,
	log *slog.Logger,
) *Service {
	if views == nil {
		views = DefaultViews()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		accounts: accounts,
		gateway:  gateway,
		sessions: sessions,
		views:    views,
		log:      log,
	}
}

// Handle returns the router for mounting under /user. Every route requires
// a signed-in session; the role override additionally requires admin.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(session.RequireAuth(s.sessions, "/login"))

	r.Get("/", s.index)
	r.Get("/edit", s.edit)
	r.Post("/update", s.update)
	r.Post("/upgrade", s.upgrade)
	r.Post("/update-card", s.updateCard)
	r.Get("/downgrade", s.downgrade)
	r.Post("/cancel", s.cancel)
	r.Post("/cancel-renewal", s.cancelRenewal)
	r.Post("/delete", s.delete)
	r.With(session.RequireAdmin()).Post("/role", s.setRole)

	return r
}

// currentAccount loads the signed-in account or renders a 500.
func (s *Service) currentAccount(w http.ResponseWriter, r *http.Request) (*account.Account, bool) {
	sess, _ := session.FromContext(r.Context())
	acc, err := s.accounts.Get(r.Context(), sess.AccountID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to load account",
			"account_id", sess.AccountID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return acc, true
}

// requestBaseURL reconstructs the URL the browser posted to; the billing
// return URLs are derived from it.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
