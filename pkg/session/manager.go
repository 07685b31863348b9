package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Manager reads and writes the session cookie and keeps the store in sync.
type Manager struct {
	store Store
	cfg   Config
}

func NewManager(store Store, cfg Config) *Manager {
	return &Manager{store: store, cfg: cfg}
}

// Current returns the session referenced by the request cookie.
// Returns ErrNotFound when there is no cookie or the token is unknown.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNotFound
	}
	return m.store.Get(ctx, cookie.Value)
}

// Ensure returns the current session, creating an anonymous one when the
// request carries no valid token.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.Current(ctx, r)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrExpired) {
		return nil, err
	}
	return m.start(ctx, w, 0, false)
}

// Login rotates the session token for the given account. Rotation on
// privilege change is the defense against session fixation.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, accountID int64, isAdmin bool) (*Session, error) {
	if old, err := m.Current(ctx, r); err == nil {
		_ = m.store.Delete(ctx, old.Token)
	}
	return m.start(ctx, w, accountID, isAdmin)
}

// Logout deletes the session and clears the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if sess, err := m.Current(ctx, r); err == nil {
		if err := m.store.Delete(ctx, sess.Token); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Save persists in-place session mutations such as flash updates.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.store.Save(ctx, sess)
}

// Flash queues a one-shot message on the request's session, creating an
// anonymous session when needed so messages survive a redirect.
func (m *Manager) Flash(ctx context.Context, w http.ResponseWriter, r *http.Request, kind, message string) error {
	sess, err := m.Ensure(ctx, w, r)
	if err != nil {
		return err
	}
	sess.Flashes = append(sess.Flashes, Flash{Kind: kind, Message: message})
	return m.store.Save(ctx, sess)
}

// PopFlashes returns and clears the pending flash messages.
func (m *Manager) PopFlashes(ctx context.Context, r *http.Request) []Flash {
	sess, err := m.Current(ctx, r)
	if err != nil || len(sess.Flashes) == 0 {
		return nil
	}
	flashes := sess.Flashes
	sess.Flashes = nil
	_ = m.store.Save(ctx, sess)
	return flashes
}

func (m *Manager) start(ctx context.Context, w http.ResponseWriter, accountID int64, isAdmin bool) (*Session, error) {
	sess := &Session{
		Token:     newToken(),
		AccountID: accountID,
		IsAdmin:   isAdmin,
		ExpiresAt: time.Now().Add(m.cfg.TTL),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}
