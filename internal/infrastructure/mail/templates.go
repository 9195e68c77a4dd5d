package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/blogcom/account-api/internal/core/ports"
)

const (
	otpSubject   = "Verify your Blogcom account"
	resetSubject = "Reset your Blogcom password"
)

var (
	otpTemplate = template.Must(template.New("otp").Parse(`<p>Welcome to Blogcom!</p>
<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not sign up, ignore this e-mail.</p>`))

	resetTemplate = template.Must(template.New("reset").Parse(`<p>A password reset was requested for your Blogcom account.</p>
<p>Use this token to choose a new password: <code>{{.Token}}</code></p>
<p>It expires in {{.Minutes}} minutes. If you did not ask for this, ignore this e-mail.</p>`))
)

// OTPMessage renders the verification e-mail carrying code.
func OTPMessage(to, code string, minutes int) (ports.Email, error) {
	body, err := render(otpTemplate, struct {
		Code    string
		Minutes int
	}{code, minutes})
	if err != nil {
		return ports.Email{}, err
	}
	return ports.Email{To: to, Subject: otpSubject, HTML: body}, nil
}

// PasswordResetMessage renders the reset e-mail carrying token.
func PasswordResetMessage(to, token string, minutes int) (ports.Email, error) {
	body, err := render(resetTemplate, struct {
		Token   string
		Minutes int
	}{token, minutes})
	if err != nil {
		return ports.Email{}, err
	}
	return ports.Email{To: to, Subject: resetSubject, HTML: body}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", t.Name(), err)
	}
	return buf.String(), nil
}
