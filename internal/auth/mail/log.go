package mail

import (
	"context"
	"log/slog"
)

// LogMailer logs messages instead of sending them. Used in development when
// no SMTP host is configured, so reset links are still reachable from the
// service logs.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Logger.InfoContext(ctx, "mail (not sent, no smtp configured)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
