// Package account owns the member lifecycle: registration, email
// verification, profile edits, role transitions driven by billing events,
// and account deletion.
package account

import (
	"time"

	"github.com/google/uuid"
)

// Role is the membership tier. It is stored redundantly on the account and
// kept in sync on every subscription transition.
type Role string

const (
	RoleFree    Role = "free"
	RolePremium Role = "premium"
)

// legacy role names kept readable for rows imported from the old system.
const (
	legacyRoleFree    = "ROLE_FREE"
	legacyRolePremium = "ROLE_PREMIUM"
)

// Valid reports whether r is a role the service accepts on writes.
func (r Role) Valid() bool {
	switch r {
	case RoleFree, RolePremium:
		return true
	}
	return false
}

// normalizeRole maps legacy role names onto the current enum on read.
func normalizeRole(raw string) Role {
	switch raw {
	case legacyRoleFree:
		return RoleFree
	case legacyRolePremium:
		return RolePremium
	}
	return Role(raw)
}

type Account struct {
	ID               int64
	Email            string
	Name             string
	Furigana         string
	PhoneNumber      string
	Address          string
	Age              int
	Occupation       string
	Role             Role
	StripeCustomerID string // empty until a checkout completes; at most one per account
	PasswordHash     []byte
	Verified         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPremium reports whether the account is on the paid tier. Legacy rows
// may still carry the old role name, so both spellings count.
func (a *Account) IsPremium() bool {
	return a.Role == RolePremium || string(a.Role) == legacyRolePremium
}

// VerificationToken is a single-use email confirmation token. The row is
// deleted together with its account.
type VerificationToken struct {
	Token     uuid.UUID
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
