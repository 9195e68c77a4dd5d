package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("password incorrect")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ValidationError reports malformed or missing input. Message is safe to
// return to the client verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnverifiedError is returned when credentials are correct but the e-mail
// address has not been confirmed yet.
type UnverifiedError struct {
	Email string
}

func (e *UnverifiedError) Error() string {
	return "email not verified: " + e.Email
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameTaken)
}
