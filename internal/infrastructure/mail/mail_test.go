package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogcom/account-api/internal/core/ports"
)

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage("ada@example.com", "4821", 10)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, otpSubject, msg.Subject)
	assert.Contains(t, msg.HTML, "<strong>4821</strong>")
	assert.Contains(t, msg.HTML, "10 minutes")
}

func TestPasswordResetMessage_EscapesToken(t *testing.T) {
	msg, err := PasswordResetMessage("ada@example.com", "<script>", 30)
	require.NoError(t, err)

	assert.Equal(t, resetSubject, msg.Subject)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestLogSender_DoesNotLogBody(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(zerolog.New(&buf))

	err := sender.Send(context.Background(), ports.Email{To: "ada@example.com", Subject: "hi", HTML: "secret-code"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"to":"ada@example.com"`)
	assert.NotContains(t, buf.String(), "secret-code")
}

func TestSMTPSender_FromDefaultsToUsername(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "mailer@example.com"})
	assert.Equal(t, "mailer@example.com", s.from)

	s = NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", From: "Blogcom <no-reply@example.com>"})
	assert.Equal(t, "Blogcom <no-reply@example.com>", s.from)
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, ports.Email{To: "ada@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
