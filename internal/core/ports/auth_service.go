package ports

import (
	"context"
	"time"

	"github.com/blogcom/account-api/internal/core/domain"
)

// SignupInput carries the fields of POST /signup.
type SignupInput struct {
	Fullname string
	Email    string
	Password string
}

// AuthResult is returned by every transition that hands out a session.
type AuthResult struct {
	Token string
	User  *domain.User
}

// UserDiagnostics is the development-only view served by the debug route.
type UserDiagnostics struct {
	Found          bool
	Email          string
	Username       string
	IsVerified     bool
	HasPassword    bool
	PasswordLength int
	CreatedAt      time.Time
	HasOTP         bool
	// OTPExpired is nil when no challenge is pending.
	OTPExpired *bool
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	VerifyOTP(ctx context.Context, email, otp string) (*AuthResult, error)
	ResendOTP(ctx context.Context, email string) error
	Signin(ctx context.Context, email, password string) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Profile(ctx context.Context, userID string) (*domain.User, error)
	DebugUser(ctx context.Context, email string) (*UserDiagnostics, error)
}
