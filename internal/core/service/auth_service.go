package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/blogcom/account-api/internal/core/domain"
	"github.com/blogcom/account-api/internal/core/ports"
)

const (
	defaultResetTokenTTL = 30 * time.Minute
	usernameSuffixLength = 5
	maxUsernameProbes    = 16
	maxCreateAttempts    = 5
	resetTokenBytes      = 32
)

var validate = validator.New()

// Config holds the settings the auth flow reads at runtime.
type Config struct {
	// Production stops OTP codes and reset tokens from being logged.
	Production          bool
	ResetTokenTTL       time.Duration
	DefaultProfilePhoto string
}

// AuthService implements signup, e-mail verification, sign-in and password
// reset on top of the credential store.
type AuthService struct {
	cfg      Config
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	otps     ports.OTPIssuer
	tokens   ports.TokenIssuer
	notifier ports.Notifier
	resets   ports.ResetTokenStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	cfg Config,
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	otps ports.OTPIssuer,
	tokens ports.TokenIssuer,
	notifier ports.Notifier,
	resets ports.ResetTokenStore,
	log zerolog.Logger,
) *AuthService {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTokenTTL
	}
	if cfg.DefaultProfilePhoto == "" {
		cfg.DefaultProfilePhoto = domain.DefaultProfilePhoto
	}
	return &AuthService{
		cfg:      cfg,
		repo:     repo,
		hasher:   hasher,
		otps:     otps,
		tokens:   tokens,
		notifier: notifier,
		resets:   resets,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Signup registers an unverified account and issues its first OTP.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	if err := validateSignup(in); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: find user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}
	otp, err := s.otps.Issue()
	if err != nil {
		return nil, fmt.Errorf("signup: issue otp: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Fullname:     in.Fullname,
		Email:        email,
		PasswordHash: hash,
		ProfilePhoto: s.cfg.DefaultProfilePhoto,
		IsVerified:   false,
		OTP:          &otp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.createWithUniqueUsername(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	s.deliverOTP(ctx, created.Email, otp.Code)

	return s.session(created)
}

// createWithUniqueUsername derives a handle from the e-mail local part and
// inserts the user, deriving a new handle if another signup claimed the
// same one between the probe and the insert.
func (s *AuthService) createWithUniqueUsername(ctx context.Context, user *domain.User) (*domain.User, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		username, err := s.uniqueUsername(ctx, domain.EmailLocalPart(user.Email))
		if err != nil {
			return nil, err
		}
		user.Username = username

		created, err := s.repo.Create(ctx, user)
		switch {
		case err == nil:
			return created, nil
		case errors.Is(err, domain.ErrUsernameTaken):
			s.log.Debug().Str("username", username).Msg("username claimed concurrently, retrying")
			continue
		case errors.Is(err, domain.ErrEmailExists):
			return nil, domain.ErrEmailExists
		default:
			return nil, fmt.Errorf("signup: create user: %w", err)
		}
	}
	return nil, fmt.Errorf("signup: %w", domain.ErrUsernameTaken)
}

func (s *AuthService) uniqueUsername(ctx context.Context, base string) (string, error) {
	username := base
	for probe := 0; probe < maxUsernameProbes; probe++ {
		_, err := s.repo.FindByUsername(ctx, username)
		if errors.Is(err, domain.ErrUserNotFound) {
			return username, nil
		}
		if err != nil {
			return "", fmt.Errorf("signup: find username: %w", err)
		}
		suffix, err := randomSuffix(usernameSuffixLength)
		if err != nil {
			return "", fmt.Errorf("signup: username suffix: %w", err)
		}
		username = base + suffix
	}
	return "", fmt.Errorf("signup: no free username for %q: %w", base, domain.ErrUsernameTaken)
}

// VerifyOTP confirms the pending challenge of the account behind email.
// Mismatched and expired codes leave the record untouched.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (*ports.AuthResult, error) {
	if email == "" || otp == "" {
		return nil, domain.NewValidationError("Email and OTP are required")
	}

	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("verify otp: find user: %w", err)
	}

	switch domain.CheckOTP(otp, user.OTP, s.now()) {
	case domain.OTPMismatched:
		return nil, domain.ErrInvalidOTP
	case domain.OTPExpired:
		return nil, domain.ErrOTPExpired
	}

	user.IsVerified = true
	user.OTP = nil
	user.UpdatedAt = s.now()

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("verify otp: save user: %w", err)
	}

	s.log.Info().Str("user_id", saved.ID).Msg("account verified")
	return s.session(saved)
}

// ResendOTP replaces the pending challenge with a fresh one. The previous
// code stops working as soon as the new one is stored.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	if email == "" {
		return domain.NewValidationError("Email is required")
	}

	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("resend otp: find user: %w", err)
	}

	otp, err := s.otps.Issue()
	if err != nil {
		return fmt.Errorf("resend otp: issue otp: %w", err)
	}
	user.OTP = &otp
	user.UpdatedAt = s.now()

	if _, err := s.repo.Save(ctx, user); err != nil {
		return fmt.Errorf("resend otp: save user: %w", err)
	}

	s.deliverOTP(ctx, user.Email, otp.Code)
	return nil
}

// Signin checks credentials and then the verification flag. An unknown
// e-mail and a wrong password both surface as ErrInvalidCredentials; the
// wrapped cause is only meant for development diagnostics.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("signin: find user: %w", err)
	}

	ok, err := s.hasher.Compare(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("signin: compare password: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrPasswordMismatch)
	}

	if !user.IsVerified {
		return nil, &domain.UnverifiedError{Email: user.Email}
	}

	return s.session(user)
}

// ForgotPassword stores and mails a reset token when the account exists.
// The caller cannot tell whether it did.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.NewValidationError("Email is required")
	}

	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("forgot password: find user: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("forgot password: generate token: %w", err)
	}
	if err := s.resets.Put(ctx, token, user.ID, s.cfg.ResetTokenTTL); err != nil {
		return fmt.Errorf("forgot password: store token: %w", err)
	}

	if !s.cfg.Production {
		s.log.Info().Str("email", user.Email).Str("reset_token", token).Msg("password reset token issued")
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to queue password reset email")
	}
	return nil
}

// ResetPassword replaces the password of the account bound to token. The
// new password is checked before the token is spent.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return domain.NewValidationError("Token and password are required")
	}
	if !domain.StrongPassword(password) {
		return domain.NewValidationError(domain.PasswordPolicyMessage)
	}

	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return domain.ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: consume token: %w", err)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: find user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("reset password: hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()

	if _, err := s.repo.Save(ctx, user); err != nil {
		return fmt.Errorf("reset password: save user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// Profile returns the account behind a session token's user id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("profile: find user: %w", err)
	}
	return user, nil
}

// DebugUser summarises the stored state of an account without exposing
// secrets.
func (s *AuthService) DebugUser(ctx context.Context, email string) (*ports.UserDiagnostics, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return &ports.UserDiagnostics{Found: false, Email: email}, nil
		}
		return nil, fmt.Errorf("debug user: find user: %w", err)
	}

	d := &ports.UserDiagnostics{
		Found:          true,
		Email:          user.Email,
		Username:       user.Username,
		IsVerified:     user.IsVerified,
		HasPassword:    user.PasswordHash != "",
		PasswordLength: len(user.PasswordHash),
		CreatedAt:      user.CreatedAt,
		HasOTP:         user.OTP != nil,
	}
	if user.OTP != nil {
		expired := !s.now().Before(user.OTP.ExpiresAt)
		d.OTPExpired = &expired
	}
	return d, nil
}

func (s *AuthService) session(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// deliverOTP hands the code to the notifier and, outside production, to the
// log. Delivery problems never fail the request.
func (s *AuthService) deliverOTP(ctx context.Context, email, code string) {
	if !s.cfg.Production {
		s.log.Info().Str("email", email).Str("otp", code).Msg("otp issued")
	}
	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to queue otp email")
	}
}

func validateSignup(in ports.SignupInput) error {
	if in.Fullname == "" || in.Email == "" || in.Password == "" {
		return domain.NewValidationError("All fields are required")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return domain.NewValidationError("Invalid email format")
	}
	if !domain.StrongPassword(in.Password) {
		return domain.NewValidationError(domain.PasswordPolicyMessage)
	}
	if len([]rune(in.Fullname)) < domain.MinFullnameLength {
		return domain.NewValidationError("Fullname must be at least %d letters long", domain.MinFullnameLength)
	}
	return nil
}

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

// randomSuffix returns n characters drawn from a 64-symbol URL-safe alphabet.
func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])&63]
	}
	return string(b), nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
