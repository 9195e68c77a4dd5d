package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/blogcom/account-api/internal/core/ports"
)

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg ports.Email) error {
	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.HTML)).
		Msg("mail delivery skipped: no smtp relay configured")
	return nil
}
