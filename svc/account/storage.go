package account

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists accounts and their dependent rows. Implementations must
// keep multi-row operations (upgrade application, account deletion)
// transactional: a partial write is worse than a failed one.
type Storage interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id int64) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	UpdateRole(ctx context.Context, id int64, role Role) error

	// ClearBilling resets the account to the free tier and removes the
	// billing customer reference after a completed cancellation.
	ClearBilling(ctx context.Context, id int64) error

	// ApplyCheckoutCompleted records the webhook event id and applies the
	// upgrade in one transaction. It returns false without touching the
	// account when the event id has been applied before.
	ApplyCheckoutCompleted(ctx context.Context, eventID string, accountID int64, customerID string) (bool, error)

	// DeleteAccount removes the verification-token rows and the account row
	// atomically; a token deletion failure aborts the whole operation.
	DeleteAccount(ctx context.Context, id int64) error

	CreateVerificationToken(ctx context.Context, t *VerificationToken) error
	GetVerificationToken(ctx context.Context, token uuid.UUID) (*VerificationToken, error)
	MarkVerified(ctx context.Context, accountID int64) error
}
