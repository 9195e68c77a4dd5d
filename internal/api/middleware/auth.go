package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/blogcom/account-api/internal/core/domain"
	"github.com/blogcom/account-api/internal/core/ports"
)

// ContextKeyUserID is the echo.Context key holding the authenticated user id.
const ContextKeyUserID = "user_id"

// Auth validates the bearer session token and injects the user id into
// context. Every failure is reported as domain.ErrUnauthorized.
func Auth(parser ports.TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return domain.ErrUnauthorized
			}

			userID, err := parser.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}

			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}
