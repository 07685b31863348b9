// Package session implements cookie-token sessions backed by a pluggable
// store. Sessions carry the signed-in account, the admin flag, and one-shot
// flash messages consumed on the next page render.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrExpired  = errors.New("session: expired")
)

type Config struct {
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"msid"` // CookieName carries the session token.
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`         // TTL is the session lifetime.
	Secure     bool          `env:"SESSION_SECURE" envDefault:"true"`      // Secure restricts the cookie to HTTPS; disable only for local runs.
}

// Flash is a one-shot message rendered on the next page view.
type Flash struct {
	Kind    string `json:"kind"` // "success" or "error"
	Message string `json:"message"`
}

type Session struct {
	Token     string    `json:"-"`
	AccountID int64     `json:"account_id"` // zero for anonymous sessions
	IsAdmin   bool      `json:"is_admin"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticated reports whether the session belongs to a signed-in account.
func (s *Session) Authenticated() bool {
	return s.AccountID != 0
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// newToken returns 32 bytes of entropy as a URL-safe string.
func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
