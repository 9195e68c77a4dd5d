package ports

import (
	"context"
	"time"
)

// Notifier delivers account e-mails. Implementations may deliver
// asynchronously; an error only means the message could not be queued.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	// Consume returns the user id bound to token and deletes it in the same
	// step. Unknown or expired tokens yield domain.ErrInvalidResetToken.
	Consume(ctx context.Context, token string) (string, error)
}

// Email is a rendered message ready for delivery.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// MailSender delivers a single rendered message synchronously.
type MailSender interface {
	Send(ctx context.Context, msg Email) error
}
