package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blogcom/account-api/internal/core/domain"
)

const (
	msgServerError     = "Server error"
	msgVerifyFirst     = "Please verify your email before signing in"
	msgInvalidCreds    = "Invalid credentials"
	msgUserNotFound    = "User not found"
	msgPasswordIncorr  = "Password incorrect"
	msgEmailExists     = "Email already exists"
	msgUsernameTaken   = "Username already taken"
	msgInvalidOTP      = "Invalid OTP"
	msgOTPExpired      = "OTP expired"
	msgInvalidReset    = "Invalid or expired reset token"
	msgUnauthorized    = "Unauthorized"
	msgTooManyRequests = "Too many requests"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needsVerification,omitempty"`
	Email             string `json:"email,omitempty"`
	Detail            string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Hides which credential check failed when production is set.
//   - Logs unexpected errors and only echoes their cause outside production.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, production, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, production bool, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusTooManyRequests {
			return he.Code, errorResponse{Message: msgTooManyRequests}
		}
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorResponse{Message: vErr.Message}
	}

	var unverified *domain.UnverifiedError
	if errors.As(err, &unverified) {
		return http.StatusBadRequest, errorResponse{
			Message:           msgVerifyFirst,
			NeedsVerification: true,
			Email:             unverified.Email,
		}
	}

	// Known domain errors → deterministic HTTP codes. ErrInvalidCredentials
	// wraps ErrUserNotFound, so it must be matched first.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Message: credentialsMessage(err, production)}
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusBadRequest, errorResponse{Message: msgEmailExists}
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest, errorResponse{Message: msgUsernameTaken}
	case errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusBadRequest, errorResponse{Message: msgInvalidOTP}
	case errors.Is(err, domain.ErrOTPExpired):
		return http.StatusBadRequest, errorResponse{Message: msgOTPExpired}
	case errors.Is(err, domain.ErrInvalidResetToken):
		return http.StatusBadRequest, errorResponse{Message: msgInvalidReset}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Message: msgUnauthorized}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Message: msgUserNotFound}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	body := errorResponse{Message: msgServerError}
	if !production {
		body.Detail = err.Error()
	}
	return http.StatusInternalServerError, body
}

func credentialsMessage(err error, production bool) string {
	if production {
		return msgInvalidCreds
	}
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return msgUserNotFound
	case errors.Is(err, domain.ErrPasswordMismatch):
		return msgPasswordIncorr
	default:
		return msgInvalidCreds
	}
}
