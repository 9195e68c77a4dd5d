package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/blogcom/account-api/internal/core/domain"
	"github.com/blogcom/account-api/internal/infrastructure/security"
)

func runAuth(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(security.NewJWTIssuer("secret", time.Hour))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return c, rec, called, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	signed, err := security.NewJWTIssuer("secret", time.Hour).Issue("65f1c0ffee0000000000beef")
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	c, rec, called, err := runAuth(t, "Bearer "+signed)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextKeyUserID) != "65f1c0ffee0000000000beef" {
		t.Fatalf("user id not set, got %v", c.Get(ContextKeyUserID))
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, security.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: "u1",
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	foreign, err := security.NewJWTIssuer("other-secret", time.Hour).Issue("u1")
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "malformed token", header: "Bearer not-a-jwt"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong secret", header: "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, called, err := runAuth(t, tt.header)
			if called {
				t.Fatalf("next must not be called")
			}
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
