package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blogcom/account-api/internal/api/metrics"
	"github.com/blogcom/account-api/internal/core/domain"
	"github.com/blogcom/account-api/internal/core/ports"
)

const (
	msgRegistered    = "User registered. OTP sent to email."
	msgVerified      = "Account verified successfully"
	msgOTPResent     = "OTP resent to email"
	msgLoggedIn      = "Logged in successfully"
	msgResetSent     = "If the email exists, a password reset link has been sent"
	msgPasswordReset = "Password has been reset"
	msgInvalidBody   = "invalid payload"
)

type AuthHandler struct {
	authService ports.AuthService
	production  bool
}

func NewAuthHandler(authService ports.AuthService, production bool) *AuthHandler {
	return &AuthHandler{authService: authService, production: production}
}

type signupRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type debugUserRequest struct {
	Email string `param:"email" validate:"required,email"`
}

// authResponse is returned by every operation that opens a session.
type authResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	ProfilePhoto string `json:"profilePhoto"`
	Username     string `json:"username"`
	Fullname     string `json:"fullname"`
	Email        string `json:"email"`
	IsVerified   bool   `json:"isVerified"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type diagnosticsResponse struct {
	Found          bool       `json:"found"`
	Email          string     `json:"email"`
	Username       string     `json:"username,omitempty"`
	IsVerified     bool       `json:"isVerified"`
	HasPassword    bool       `json:"hasPassword"`
	PasswordLength int        `json:"passwordLength"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	HasOTP         bool       `json:"hasOTP"`
	OTPExpired     *bool      `json:"otpExpired,omitempty"`
}

func newAuthResponse(message string, res *ports.AuthResult) authResponse {
	return authResponse{
		Message:      message,
		AccessToken:  res.Token,
		ProfilePhoto: res.User.ProfilePhoto,
		Username:     res.User.Username,
		Fullname:     res.User.Fullname,
		Email:        res.User.Email,
		IsVerified:   res.User.IsVerified,
	}
}

// Signup registers a new, unverified account and mails its OTP.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Signup details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
	})
	observe("signup", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newAuthResponse(msgRegistered, res))
}

// VerifyOTP confirms the e-mail address with the mailed code.
//
// @Summary      Verify e-mail with OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "E-mail and code"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}

	res, err := h.authService.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	observe("verify_otp", err)
	if err != nil {
		// Unknown accounts are a 400 here, unlike the other routes.
		if errors.Is(err, domain.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "User not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, newAuthResponse(msgVerified, res))
}

// ResendOTP issues a fresh code and invalidates the previous one.
//
// @Summary      Resend OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "E-mail"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/resend-otp [post]
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}

	err := h.authService.ResendOTP(c.Request().Context(), req.Email)
	observe("resend_otp", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: msgOTPResent})
}

// Signin authenticates a verified account and returns a session token.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      429   {object}  map[string]string
// @Router       /api/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}

	res, err := h.authService.Signin(c.Request().Context(), req.Email, req.Password)
	observe("signin", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newAuthResponse(msgLoggedIn, res))
}

// ForgotPassword mails a reset token if the account exists.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "E-mail"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}

	err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	observe("forgot_password", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: msgResetSent})
}

// ResetPassword spends a reset token and replaces the password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}

	err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password)
	observe("reset_password", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: msgPasswordReset})
}

// Me returns the profile of the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// DebugUser reports the stored state of an account. Development only.
//
// @Summary      Inspect an account (development only)
// @Tags         debug
// @Produce      json
// @Param        email  path      string  true  "E-mail"
// @Success      200    {object}  diagnosticsResponse
// @Failure      404    {object}  map[string]string
// @Router       /api/debug/user/{email} [get]
func (h *AuthHandler) DebugUser(c echo.Context) error {
	if h.production {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	var req debugUserRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.authService.DebugUser(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	resp := diagnosticsResponse{
		Found:          d.Found,
		Email:          d.Email,
		Username:       d.Username,
		IsVerified:     d.IsVerified,
		HasPassword:    d.HasPassword,
		PasswordLength: d.PasswordLength,
		HasOTP:         d.HasOTP,
		OTPExpired:     d.OTPExpired,
	}
	if d.Found {
		createdAt := d.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return c.JSON(http.StatusOK, resp)
}

// observe records the outcome of an auth operation.
func observe(operation string, err error) {
	metrics.AuthAttemptsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	var (
		vErr       *domain.ValidationError
		unverified *domain.UnverifiedError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &unverified):
		return "unverified"
	case domain.IsConflict(err):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidOTP),
		errors.Is(err, domain.ErrOTPExpired),
		errors.Is(err, domain.ErrInvalidResetToken):
		return "auth"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}
