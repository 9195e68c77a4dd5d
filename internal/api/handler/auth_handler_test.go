package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blogcom/account-api/internal/api/middleware"
	"github.com/blogcom/account-api/internal/core/domain"
	"github.com/blogcom/account-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn    func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error)
	verifyFn    func(ctx context.Context, email, otp string) (*ports.AuthResult, error)
	resendFn    func(ctx context.Context, email string) error
	signinFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	forgotFn    func(ctx context.Context, email string) error
	resetFn     func(ctx context.Context, token, password string) error
	profileFn   func(ctx context.Context, userID string) (*domain.User, error)
	debugUserFn func(ctx context.Context, email string) (*ports.UserDiagnostics, error)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) VerifyOTP(ctx context.Context, email, otp string) (*ports.AuthResult, error) {
	return s.verifyFn(ctx, email, otp)
}

func (s *stubAuthService) ResendOTP(ctx context.Context, email string) error {
	return s.resendFn(ctx, email)
}

func (s *stubAuthService) Signin(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.signinFn(ctx, email, password)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token, password string) error {
	return s.resetFn(ctx, token, password)
}

func (s *stubAuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}

func (s *stubAuthService) DebugUser(ctx context.Context, email string) (*ports.UserDiagnostics, error) {
	return s.debugUserFn(ctx, email)
}

func sampleResult(verified bool) *ports.AuthResult {
	return &ports.AuthResult{
		Token: "signed.jwt.token",
		User: &domain.User{
			ID:           "u1",
			Username:     "ada",
			Fullname:     "Ada Lovelace",
			Email:        "ada@x.com",
			ProfilePhoto: domain.DefaultProfilePhoto,
			IsVerified:   verified,
		},
	}
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(_ context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
			if in.Fullname != "Ada Lovelace" || in.Email != "ada@x.com" || in.Password != "Secret1!" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return sampleResult(false), nil
		},
	}
	handler := NewAuthHandler(stub, false)

	c, rec := newJSONContext(http.MethodPost, "/api/signup", `{"fullname":"Ada Lovelace","email":"ada@x.com","password":"Secret1!"}`)
	if err := handler.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["message"] != msgRegistered {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if resp["access_token"] != "signed.jwt.token" {
		t.Fatalf("unexpected access_token: %v", resp["access_token"])
	}
	if resp["isVerified"] != false {
		t.Fatalf("expected isVerified false, got %v", resp["isVerified"])
	}
	for _, key := range []string{"profilePhoto", "username", "fullname", "email"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("expected %q in response", key)
		}
	}
	if _, ok := resp["password"]; ok {
		t.Fatalf("password must never be serialized")
	}
}

func TestAuthHandler_Signup_InvalidPayload(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, false)

	c, _ := newJSONContext(http.MethodPost, "/api/signup", `{"fullname":`)
	err := handler.Signup(c)

	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Message != msgInvalidBody {
		t.Fatalf("expected invalid payload validation error, got %v", err)
	}
}

func TestAuthHandler_Signup_PropagatesServiceError(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*ports.AuthResult, error) {
			return nil, domain.ErrEmailExists
		},
	}
	handler := NewAuthHandler(stub, false)

	c, _ := newJSONContext(http.MethodPost, "/api/signup", `{"fullname":"Ada","email":"ada@x.com","password":"Secret1!"}`)
	if err := handler.Signup(c); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestAuthHandler_VerifyOTP(t *testing.T) {
	stub := &stubAuthService{
		verifyFn: func(_ context.Context, email, otp string) (*ports.AuthResult, error) {
			if email != "ada@x.com" || otp != "4821" {
				t.Fatalf("unexpected args: %s %s", email, otp)
			}
			return sampleResult(true), nil
		},
	}
	handler := NewAuthHandler(stub, false)

	c, rec := newJSONContext(http.MethodPost, "/api/verify-otp", `{"email":"ada@x.com","otp":"4821"}`)
	if err := handler.VerifyOTP(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["message"] != msgVerified || resp["isVerified"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestAuthHandler_VerifyOTP_UnknownUserIsBadRequest(t *testing.T) {
	stub := &stubAuthService{
		verifyFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewAuthHandler(stub, false)

	c, _ := newJSONContext(http.MethodPost, "/api/verify-otp", `{"email":"ghost@x.com","otp":"1234"}`)
	err := handler.VerifyOTP(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest || he.Message != "User not found" {
		t.Fatalf("expected 400 User not found, got %v", err)
	}
}

func TestAuthHandler_ResendOTP(t *testing.T) {
	called := false
	stub := &stubAuthService{
		resendFn: func(_ context.Context, email string) error {
			called = email == "ada@x.com"
			return nil
		},
	}
	handler := NewAuthHandler(stub, false)

	c, rec := newJSONContext(http.MethodPost, "/api/resend-otp", `{"email":"ada@x.com"}`)
	if err := handler.ResendOTP(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("service not called with email")
	}
	if resp := decode(t, rec); resp["message"] != msgOTPResent {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestAuthHandler_ResendOTP_NotFoundPropagates(t *testing.T) {
	stub := &stubAuthService{
		resendFn: func(context.Context, string) error { return domain.ErrUserNotFound },
	}
	handler := NewAuthHandler(stub, false)

	c, _ := newJSONContext(http.MethodPost, "/api/resend-otp", `{"email":"ghost@x.com"}`)
	if err := handler.ResendOTP(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Signin(t *testing.T) {
	stub := &stubAuthService{
		signinFn: func(_ context.Context, email, password string) (*ports.AuthResult, error) {
			if email != "ada@x.com" || password != "Secret1!" {
				return nil, domain.ErrInvalidCredentials
			}
			return sampleResult(true), nil
		},
	}
	handler := NewAuthHandler(stub, true)

	c, rec := newJSONContext(http.MethodPost, "/api/signin", `{"email":"ada@x.com","password":"Secret1!"}`)
	if err := handler.Signin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["message"] != msgLoggedIn || resp["access_token"] == "" {
		t.Fatalf("unexpected response: %v", resp)
	}

	c, _ = newJSONContext(http.MethodPost, "/api/signin", `{"email":"ada@x.com","password":"wrong"}`)
	if err := handler.Signin(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_ForgotAndResetPassword(t *testing.T) {
	stub := &stubAuthService{
		forgotFn: func(context.Context, string) error { return nil },
		resetFn: func(_ context.Context, token, password string) error {
			if token != "tok" || password != "N3w!Password" {
				return domain.ErrInvalidResetToken
			}
			return nil
		},
	}
	handler := NewAuthHandler(stub, false)

	c, rec := newJSONContext(http.MethodPost, "/api/forgot-password", `{"email":"ada@x.com"}`)
	if err := handler.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decode(t, rec); resp["message"] != msgResetSent {
		t.Fatalf("unexpected message: %v", resp["message"])
	}

	c, rec = newJSONContext(http.MethodPost, "/api/reset-password", `{"token":"tok","password":"N3w!Password"}`)
	if err := handler.ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decode(t, rec); resp["message"] != msgPasswordReset {
		t.Fatalf("unexpected message: %v", resp["message"])
	}

	c, _ = newJSONContext(http.MethodPost, "/api/reset-password", `{"token":"stale","password":"N3w!Password"}`)
	if err := handler.ResetPassword(c); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		profileFn: func(_ context.Context, userID string) (*domain.User, error) {
			if userID != "u1" {
				return nil, domain.ErrUserNotFound
			}
			return &domain.User{ID: "u1", Email: "ada@x.com", PasswordHash: "secret-hash"}, nil
		},
	}
	handler := NewAuthHandler(stub, false)

	c, rec := newJSONContext(http.MethodGet, "/api/me", "")
	c.Set(middleware.ContextKeyUserID, "u1")
	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked in profile response")
	}
	if resp := decode(t, rec); resp["email"] != "ada@x.com" {
		t.Fatalf("unexpected profile: %v", resp)
	}

	c, _ = newJSONContext(http.MethodGet, "/api/me", "")
	if err := handler.Me(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without middleware claims, got %v", err)
	}
}

func debugContext(email string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newJSONContext(http.MethodGet, "/api/debug/user/"+email, "")
	c.SetPath("/api/debug/user/:email")
	c.SetParamNames("email")
	c.SetParamValues(email)
	return c, rec
}

func TestAuthHandler_DebugUser(t *testing.T) {
	expired := false
	stub := &stubAuthService{
		debugUserFn: func(_ context.Context, email string) (*ports.UserDiagnostics, error) {
			return &ports.UserDiagnostics{
				Found:          true,
				Email:          email,
				Username:       "ada",
				HasPassword:    true,
				PasswordLength: 60,
				CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
				HasOTP:         true,
				OTPExpired:     &expired,
			}, nil
		},
	}

	c, rec := debugContext("ada@x.com")
	if err := NewAuthHandler(stub, false).DebugUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["found"] != true || resp["passwordLength"] != float64(60) || resp["otpExpired"] != false {
		t.Fatalf("unexpected diagnostics: %v", resp)
	}

	c, _ = debugContext("not-an-email")
	var vErr *domain.ValidationError
	if err := NewAuthHandler(stub, false).DebugUser(c); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for malformed email, got %v", err)
	}

	c, _ = debugContext("ada@x.com")
	err := NewAuthHandler(stub, true).DebugUser(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 in production, got %v", err)
	}
}

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"success":    nil,
		"validation": domain.NewValidationError("Email is required"),
		"unverified": &domain.UnverifiedError{Email: "ada@x.com"},
		"conflict":   domain.ErrEmailExists,
		"auth":       errors.Join(domain.ErrInvalidCredentials, domain.ErrUserNotFound),
		"not_found":  domain.ErrUserNotFound,
		"error":      errors.New("boom"),
	}
	for want, err := range tests {
		if got := outcome(err); got != want {
			t.Fatalf("outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
