package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/blogcom/account-api/internal/api/middleware"
	"github.com/blogcom/account-api/internal/core/domain"
)

// ctxUserID extracts the user id injected by the Auth middleware. An empty
// value means the route was mounted without it.
func ctxUserID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextKeyUserID).(string)
	if id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}
