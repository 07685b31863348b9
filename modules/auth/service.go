// Package auth exposes the sign-in and registration pages: login, logout,
// signup with email verification.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/meshiya/membership/pkg/binder"
	"github.com/meshiya/membership/pkg/session"
	"github.com/meshiya/membership/svc/account"
)

type Service struct {
	accounts    *account.Service
	sessions    *session.Manager
	views       *Views
	log         *slog.Logger
	adminEmails map[string]struct{}
}

type Option func(*Service)

// WithAdminEmails marks the accounts whose sessions carry the admin flag.
// Matching is case-insensitive on the email address.
func WithAdminEmails(emails []string) Option {
	return func(s *Service) {
		for _, e := range emails {
			e = strings.ToLower(strings.TrimSpace(e))
			if e != "" {
				s.adminEmails[e] = struct{}{}
			}
		}
	}
}

func NewService(accounts *account.Service, sessions *session.Manager, views *Views, log *slog.Logger, opts ...Option) *Service {
	if views == nil {
		views = DefaultViews()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		accounts:    accounts,
		sessions:    sessions,
		views:       views,
		log:         log,
		adminEmails: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) isAdmin(email string) bool {
	_, ok := s.adminEmails[strings.ToLower(email)]
	return ok
}

func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	// The profile router bounces unauthenticated visitors back to /login.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/user", http.StatusSeeOther)
	})

	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)
	r.Get("/register", s.registerPage)
	r.Post("/register", s.register)
	r.Get("/verify", s.verify)

	return r
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (s *Service) loginPage(w http.ResponseWriter, r *http.Request) {
	flashes := s.sessions.PopFlashes(r.Context(), r)
	// The upgrade checkout lands back on /login?success=true.
	var q struct {
		Success bool `query:"success"`
	}
	if err := binder.Query()(r, &q); err == nil && q.Success {
		flashes = append(flashes, session.Flash{
			Kind:    "success",
			Message: "Payment complete. Sign in again to use your premium membership.",
		})
	}
	render(w, r, s.views.Login(LoginParams{Flashes: flashes}))
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := binder.Form()(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	acc, err := s.accounts.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		msg := "Invalid email or password."
		if errors.Is(err, account.ErrNotVerified) {
			msg = "Please confirm your email address first."
		} else if !errors.Is(err, account.ErrInvalidCredentials) {
			s.log.ErrorContext(r.Context(), "login failed", "error", err)
			msg = "Something went wrong. Please try again."
		}
		render(w, r, s.views.Login(LoginParams{
			Email:   form.Email,
			Flashes: []session.Flash{{Kind: "error", Message: msg}},
		}))
		return
	}

	if _, err := s.sessions.Login(r.Context(), w, r, acc.ID, s.isAdmin(acc.Email)); err != nil {
		s.log.ErrorContext(r.Context(), "session creation failed", "account_id", acc.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

func (s *Service) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), w, r); err != nil {
		s.log.ErrorContext(r.Context(), "logout failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) registerPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, s.views.Register(RegisterParams{}))
}

func (s *Service) register(w http.ResponseWriter, r *http.Request) {
	var form account.RegisterForm
	if err := binder.Form()(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	fieldErrs := form.Validate()
	if fieldErrs.Empty() {
		switch _, err := s.accounts.Register(r.Context(), form); {
		case err == nil:
			render(w, r, s.views.RegisterSuccess(RegisterSuccessParams{Email: form.Email}))
			return
		case errors.Is(err, account.ErrEmailTaken):
			fieldErrs["email"] = "this email address is already registered"
		default:
			s.log.ErrorContext(r.Context(), "registration failed", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	render(w, r, s.views.Register(RegisterParams{Form: form, Errors: fieldErrs}))
}

func (s *Service) verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := s.accounts.Verify(r.Context(), token); err != nil {
		msg := "Verification link is invalid."
		switch {
		case errors.Is(err, account.ErrTokenExpired):
			msg = "Verification link has expired. Please register again."
		case errors.Is(err, account.ErrTokenNotFound):
			// keep generic message
		default:
			s.log.ErrorContext(r.Context(), "verification failed", "error", err)
			msg = "Something went wrong. Please try again."
		}
		render(w, r, s.views.Verify(VerifyParams{Message: msg}))
		return
	}

	_ = s.sessions.Flash(r.Context(), w, r, "success", "Email confirmed. You can sign in now.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
