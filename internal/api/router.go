package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/blogcom/account-api/docs"
	"github.com/blogcom/account-api/internal/api/handler"
	"github.com/blogcom/account-api/internal/api/middleware"
	"github.com/blogcom/account-api/internal/core/ports"
)

const (
	bodyLimit        = "1M"
	metricsSubsystem = "http"
)

// Deps carries everything the HTTP layer needs from main.
type Deps struct {
	Log         zerolog.Logger
	Production  bool
	AuthService ports.AuthService
	TokenParser ports.TokenParser
	RateLimiter *middleware.IPRateLimiter
	CORSOrigins []string
	Readiness   []handler.Dependency

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Production)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: d.Registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Production)
	authMiddleware := middleware.Auth(d.TokenParser)

	// --- Auth routes ---
	api := e.Group("/api")
	public := api.Group("")
	if d.RateLimiter != nil {
		public.Use(d.RateLimiter.Middleware())
	}
	public.POST("/signup", authHandler.Signup)
	public.POST("/verify-otp", authHandler.VerifyOTP)
	public.POST("/resend-otp", authHandler.ResendOTP)
	public.POST("/signin", authHandler.Signin)
	public.POST("/forgot-password", authHandler.ForgotPassword)
	public.POST("/reset-password", authHandler.ResetPassword)

	api.GET("/me", authHandler.Me, authMiddleware)
	api.GET("/debug/user/:email", authHandler.DebugUser)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: d.Gatherer,
	}))
	if !d.Production {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}
