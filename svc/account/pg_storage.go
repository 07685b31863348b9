package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshiya/membership/pkg/pg"
)

// PGStorage is the production Storage backed by PostgreSQL. Account
// mutations rely on row-level locking inside transactions to serialize
// concurrent writers (a webhook upgrade racing a user-initiated cancel).
type PGStorage struct {
	pool *pgxpool.Pool
}

func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const accountColumns = `id, email, name, furigana, phone_number, address, age, occupation,
	role, COALESCE(stripe_customer_id, ''), password_hash, verified, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var rawRole string
	if err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.Furigana, &a.PhoneNumber, &a.Address, &a.Age,
		&a.Occupation, &rawRole, &a.StripeCustomerID, &a.PasswordHash, &a.Verified,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Role = normalizeRole(rawRole)
	return &a, nil
}

func (s *PGStorage) CreateAccount(ctx context.Context, a *Account) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, name, furigana, phone_number, address, age, occupation, role, password_hash, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.Email, a.Name, a.Furigana, a.PhoneNumber, a.Address, a.Age, a.Occupation,
		string(a.Role), a.PasswordHash, a.Verified,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *PGStorage) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *PGStorage) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

func (s *PGStorage) UpdateAccount(ctx context.Context, a *Account) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET email = $2, name = $3, furigana = $4, phone_number = $5, address = $6,
			age = $7, occupation = $8, updated_at = now()
		WHERE id = $1`,
		a.ID, a.Email, a.Name, a.Furigana, a.PhoneNumber, a.Address, a.Age, a.Occupation,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStorage) UpdateRole(ctx context.Context, id int64, role Role) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`,
		id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStorage) ClearBilling(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET role = $2, stripe_customer_id = NULL, updated_at = now()
		WHERE id = $1`,
		id, string(RoleFree))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStorage) ApplyCheckoutCompleted(ctx context.Context, eventID string, accountID int64, customerID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The event id insert doubles as the idempotency guard: a redelivered
	// event conflicts here and the upgrade is skipped.
	tag, err := tx.Exec(ctx,
		`INSERT INTO webhook_events (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		eventID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE accounts
		SET stripe_customer_id = $2, role = $3, updated_at = now()
		WHERE id = $1`,
		accountID, customerID, string(RolePremium))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Rolling back keeps the event unrecorded so a redelivery can
		// succeed once the account exists.
		return false, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}

	return true, tx.Commit(ctx)
}

func (s *PGStorage) DeleteAccount(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM verification_tokens WHERE account_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *PGStorage) CreateVerificationToken(ctx context.Context, t *VerificationToken) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO verification_tokens (token, account_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		t.Token, t.AccountID, t.ExpiresAt,
	).Scan(&t.CreatedAt)
}

func (s *PGStorage) GetVerificationToken(ctx context.Context, token uuid.UUID) (*VerificationToken, error) {
	var t VerificationToken
	err := s.pool.QueryRow(ctx, `
		SELECT token, account_id, expires_at, created_at
		FROM verification_tokens WHERE token = $1`, token,
	).Scan(&t.Token, &t.AccountID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *PGStorage) MarkVerified(ctx context.Context, accountID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET verified = TRUE, updated_at = now() WHERE id = $1`,
		accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Storage = (*PGStorage)(nil)
