package email

import (
	"context"
	"log/slog"
)

// LogSender writes emails to the application log instead of delivering
// them. It is the default sender when no Postmark tokens are configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, params SendParams) error {
	if err := params.validate(); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email not sent (log sender)",
		"to", params.To,
		"subject", params.Subject,
		"tag", params.Tag,
	)
	return nil
}
