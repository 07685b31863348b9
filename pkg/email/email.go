// Package email defines the outbound email sender used for account
// verification messages, with a Postmark implementation for production and
// a log-only sender for development.
package email

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrFailedToSendEmail = errors.New("email: failed to send")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidParams     = errors.New("email: invalid send params")
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`  // Empty in development; the log sender is used instead.
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"` //
	SenderEmail          string `env:"SENDER_EMAIL,required"`  // From address for all outbound mail.
	SupportEmail         string `env:"SUPPORT_EMAIL,required"` // Reply-To so customer responses reach a monitored inbox.
}

// Sender sends a single transactional email.
type Sender interface {
	Send(ctx context.Context, params SendParams) error
}

type SendParams struct {
	To       string
	Subject  string
	BodyHTML string
	Tag      string
}

func (p SendParams) validate() error {
	if !emailRegex.MatchString(p.To) {
		return fmt.Errorf("%w: recipient %q is not a valid address", ErrInvalidParams, p.To)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidParams)
	}
	return nil
}
