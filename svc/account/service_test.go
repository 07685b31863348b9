package account_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meshiya/membership/pkg/email"
	"github.com/meshiya/membership/svc/account"
)

type capturingMailer struct {
	sent []email.SendParams
	err  error
}

func (m *capturingMailer) Send(ctx context.Context, params email.SendParams) error {
	m.sent = append(m.sent, params)
	return m.err
}

func newTestService(t *testing.T) (*account.Service, *account.MemoryStorage, *capturingMailer) {
	t.Helper()
	storage := account.NewMemoryStorage()
	mailer := &capturingMailer{}
	svc := account.NewService(storage, mailer,
		account.WithBaseURL("https://example.com"),
		account.WithBcryptCost(bcrypt.MinCost),
	)
	return svc, storage, mailer
}

func register(t *testing.T, svc *account.Service, emailAddr string) *account.Account {
	t.Helper()
	acc, err := svc.Register(context.Background(), account.RegisterForm{
		Email:           emailAddr,
		Name:            "Taro",
		Password:        "password123",
		PasswordConfirm: "password123",
	})
	require.NoError(t, err)
	return acc
}

var verifyLinkRe = regexp.MustCompile(`https://example\.com/verify\?token=([0-9a-f-]+)`)

func TestRegisterAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, mailer := newTestService(t)

	acc := register(t, svc, "taro@example.com")
	assert.Equal(t, account.RoleFree, acc.Role)
	assert.False(t, acc.Verified)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "taro@example.com", mailer.sent[0].To)
	match := verifyLinkRe.FindStringSubmatch(mailer.sent[0].BodyHTML)
	require.Len(t, match, 2, "verification email must contain the link")

	require.NoError(t, svc.Verify(ctx, match[1]))

	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	register(t, svc, "taro@example.com")
	_, err := svc.Register(context.Background(), account.RegisterForm{
		Email:    "taro@example.com",
		Name:     "Other",
		Password: "password123",
	})
	assert.ErrorIs(t, err, account.ErrEmailTaken)
}

func TestRegister_MailerFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)
	mailer.err = email.ErrFailedToSendEmail

	acc := register(t, svc, "taro@example.com")

	got, err := svc.Get(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "taro@example.com", got.Email)
}

func TestVerify_BadToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	assert.ErrorIs(t, svc.Verify(context.Background(), "not-a-uuid"), account.ErrTokenNotFound)
	assert.ErrorIs(t, svc.Verify(context.Background(), "00000000-0000-0000-0000-000000000001"), account.ErrTokenNotFound)
}

func TestVerify_ExpiredToken(t *testing.T) {
	t.Parallel()
	storage := account.NewMemoryStorage()
	mailer := &capturingMailer{}
	svc := account.NewService(storage, mailer,
		account.WithBcryptCost(bcrypt.MinCost),
		account.WithTokenTTL(-time.Minute),
		account.WithBaseURL("https://example.com"),
	)

	_, err := svc.Register(context.Background(), account.RegisterForm{
		Email: "taro@example.com", Name: "Taro", Password: "password123",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	match := verifyLinkRe.FindStringSubmatch(mailer.sent[0].BodyHTML)
	require.Len(t, match, 2)

	assert.ErrorIs(t, svc.Verify(context.Background(), match[1]), account.ErrTokenExpired)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, storage, _ := newTestService(t)
	acc := register(t, svc, "taro@example.com")

	t.Run("unverified account is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "taro@example.com", "password123")
		assert.ErrorIs(t, err, account.ErrNotVerified)
	})

	require.NoError(t, storage.MarkVerified(ctx, acc.ID))

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "taro@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "taro@example.com", "wrong-password")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	acc := register(t, svc, "taro@example.com")
	other := register(t, svc, "hanako@example.com")

	t.Run("profile fields are applied", func(t *testing.T) {
		err := svc.Update(ctx, account.EditForm{
			ID:          acc.ID,
			Email:       "taro@example.com",
			Name:        "Taro Yamada",
			Furigana:    "やまだ たろう",
			PhoneNumber: "090-0000-0000",
			Address:     "Tokyo",
			Age:         30,
			Occupation:  "engineer",
		})
		require.NoError(t, err)

		got, err := svc.Get(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Taro Yamada", got.Name)
		assert.Equal(t, 30, got.Age)
	})

	t.Run("changing to a taken email fails", func(t *testing.T) {
		err := svc.Update(ctx, account.EditForm{
			ID:    acc.ID,
			Email: other.Email,
			Name:  "Taro",
		})
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("keeping own email is allowed", func(t *testing.T) {
		err := svc.Update(ctx, account.EditForm{
			ID:    acc.ID,
			Email: "taro@example.com",
			Name:  "Taro",
		})
		assert.NoError(t, err)
	})
}

func TestSaveCustomerIDAndUpgrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	acc := register(t, svc, "taro@example.com")

	require.NoError(t, svc.SaveCustomerIDAndUpgrade(ctx, "evt_1", acc.ID, "cus_123"))

	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPremium())
	assert.Equal(t, "cus_123", got.StripeCustomerID)

	t.Run("redelivered event is a no-op", func(t *testing.T) {
		require.NoError(t, svc.SaveCustomerIDAndUpgrade(ctx, "evt_1", acc.ID, "cus_other"))

		got, err := svc.Get(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "cus_123", got.StripeCustomerID)
	})

	t.Run("unknown account fails so redelivery can retry", func(t *testing.T) {
		err := svc.SaveCustomerIDAndUpgrade(ctx, "evt_2", 9999, "cus_123")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestDowngrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	acc := register(t, svc, "taro@example.com")
	require.NoError(t, svc.SaveCustomerIDAndUpgrade(ctx, "evt_1", acc.ID, "cus_123"))

	require.NoError(t, svc.Downgrade(ctx, acc.ID))

	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, account.RoleFree, got.Role)
	assert.Empty(t, got.StripeCustomerID)
}

func TestSetRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	acc := register(t, svc, "taro@example.com")

	require.NoError(t, svc.SetRole(ctx, acc.ID, account.RolePremium))
	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, account.RolePremium, got.Role)

	assert.ErrorIs(t, svc.SetRole(ctx, acc.ID, "superuser"), account.ErrInvalidRole)
	assert.ErrorIs(t, svc.SetRole(ctx, 9999, account.RoleFree), account.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	acc := register(t, svc, "taro@example.com")

	require.NoError(t, svc.Delete(ctx, acc.ID))

	_, err := svc.Get(ctx, acc.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), account.ErrNotFound)
}
