package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meshiya/membership/pkg/email"
)

// Service implements the account lifecycle on top of Storage.
type Service struct {
	storage    Storage
	mailer     email.Sender
	log        *slog.Logger
	baseURL    string
	tokenTTL   time.Duration
	bcryptCost int
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithBaseURL sets the public base URL used in verification links.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = u }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(storage Storage, mailer email.Sender, opts ...Option) *Service {
	s := &Service{
		storage:    storage,
		mailer:     mailer,
		log:        slog.New(slog.DiscardHandler),
		baseURL:    "http://localhost:8080",
		tokenTTL:   24 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an unverified free-tier account and emails a
// verification link. A failed email send does not roll the account back;
// the user can request a new link by registering again after cleanup.
func (s *Service) Register(ctx context.Context, form RegisterForm) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	acc := &Account{
		Email:        form.Email,
		Name:         form.Name,
		Role:         RoleFree,
		PasswordHash: hash,
	}
	if err := s.storage.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	token := &VerificationToken{
		Token:     uuid.New(),
		AccountID: acc.ID,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := s.storage.CreateVerificationToken(ctx, token); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/verify?token=%s", s.baseURL, token.Token)
	if err := s.mailer.Send(ctx, email.SendParams{
		To:      acc.Email,
		Subject: "Confirm your membership account",
		BodyHTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Please confirm your email address by opening <a href="%s">this link</a>.</p>`,
			acc.Name, link),
		Tag: "verify-email",
	}); err != nil {
		s.log.ErrorContext(ctx, "failed to send verification email",
			"account_id", acc.ID, "error", err)
	}

	return acc, nil
}

// Verify marks the token's account as verified. Expired tokens fail with
// ErrTokenExpired; the token row itself stays until the account is deleted.
func (s *Service) Verify(ctx context.Context, rawToken string) error {
	token, err := uuid.Parse(rawToken)
	if err != nil {
		return ErrTokenNotFound
	}

	t, err := s.storage.GetVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if t.Expired(time.Now()) {
		return ErrTokenExpired
	}
	return s.storage.MarkVerified(ctx, t.AccountID)
}

// Authenticate checks email/password credentials. The error does not
// distinguish an unknown email from a wrong password.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (*Account, error) {
	acc, err := s.storage.GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !acc.Verified {
		return nil, ErrNotVerified
	}
	return acc, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.storage.GetAccount(ctx, id)
}

// IsEmailRegistered reports whether any account uses the given email.
func (s *Service) IsEmailRegistered(ctx context.Context, emailAddr string) (bool, error) {
	_, err := s.storage.GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Update applies a validated edit form. Changing the email to one held by a
// different account fails with ErrEmailTaken; keeping one's own email is
// always allowed.
func (s *Service) Update(ctx context.Context, form EditForm) error {
	current, err := s.storage.GetAccount(ctx, form.ID)
	if err != nil {
		return err
	}

	if form.Email != current.Email {
		taken, err := s.IsEmailRegistered(ctx, form.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}

	current.Email = form.Email
	current.Name = form.Name
	current.Furigana = form.Furigana
	current.PhoneNumber = form.PhoneNumber
	current.Address = form.Address
	current.Age = form.Age
	current.Occupation = form.Occupation
	return s.storage.UpdateAccount(ctx, current)
}

// SaveCustomerIDAndUpgrade links the billing customer to the account and
// promotes it to premium. The event id makes the operation idempotent: a
// redelivered webhook event is acknowledged without a second mutation.
func (s *Service) SaveCustomerIDAndUpgrade(ctx context.Context, eventID string, accountID int64, customerID string) error {
	applied, err := s.storage.ApplyCheckoutCompleted(ctx, eventID, accountID, customerID)
	if err != nil {
		return err
	}
	if !applied {
		s.log.InfoContext(ctx, "duplicate checkout event ignored",
			"event_id", eventID, "account_id", accountID)
		return nil
	}

	s.log.InfoContext(ctx, "account upgraded to premium",
		"account_id", accountID)
	return nil
}

// Downgrade returns the account to the free tier and clears the billing
// customer reference, so a later upgrade starts from a clean slate.
func (s *Service) Downgrade(ctx context.Context, id int64) error {
	return s.storage.ClearBilling(ctx, id)
}

// SetRole is the administrative role override.
func (s *Service) SetRole(ctx context.Context, id int64, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.storage.UpdateRole(ctx, id, role)
}

// Delete removes the account and its verification tokens in one
// transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteAccount(ctx, id)
}
