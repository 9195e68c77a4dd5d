package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/blogcom/account-api/internal/api"
	"github.com/blogcom/account-api/internal/api/handler"
	"github.com/blogcom/account-api/internal/api/middleware"
	"github.com/blogcom/account-api/internal/core/ports"
	"github.com/blogcom/account-api/internal/core/service"
	"github.com/blogcom/account-api/internal/infrastructure/config"
	mongostore "github.com/blogcom/account-api/internal/infrastructure/db/mongo"
	redisstore "github.com/blogcom/account-api/internal/infrastructure/db/redis"
	"github.com/blogcom/account-api/internal/infrastructure/mail"
	"github.com/blogcom/account-api/internal/infrastructure/queue"
	"github.com/blogcom/account-api/internal/infrastructure/security"
	"github.com/blogcom/account-api/pkg/logger"
)

const (
	serviceName     = "account-api"
	shutdownTimeout = 10 * time.Second
)

// @title                       Blogcom Account API
// @version                     1.0
// @description                 Signup, e-mail verification and sign-in for Blogcom authors.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	// --- Storage ---
	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongostore.Disconnect(context.Background(), client); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	users := mongostore.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Mail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	dispatcher := queue.NewDispatcher(queue.Options{
		Workers:  cfg.SMTP.Workers,
		OTPTTL:   cfg.Auth.OTPTTL,
		ResetTTL: cfg.Auth.ResetTokenTTL,
	}, newMailSender(cfg.SMTP, log), log.With().Str("component", "mail").Logger())
	dispatcher.Start(workerCtx)

	// --- Auth ---
	tokens := security.NewJWTIssuer(cfg.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(
		service.Config{
			Production:          cfg.IsProduction(),
			ResetTokenTTL:       cfg.Auth.ResetTokenTTL,
			DefaultProfilePhoto: cfg.Auth.DefaultProfilePhoto,
		},
		users,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		security.NewOTPGenerator(cfg.Auth.OTPTTL),
		tokens,
		dispatcher,
		redisstore.NewResetTokenStore(rdb),
		log.With().Str("component", "auth").Logger(),
	)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Cleanup(workerCtx)

	e := api.NewRouter(api.Deps{
		Log:         log,
		Production:  cfg.IsProduction(),
		AuthService: authService,
		TokenParser: tokens,
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
		Readiness: []handler.Dependency{
			{Name: "mongodb", Check: func(ctx context.Context) error { return client.Ping(ctx, nil) }},
			{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown with error")
	}

	stopWorkers()
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mail workers did not drain before shutdown deadline")
	}

	log.Info().Msg("server exiting")
	return nil
}

func newMailSender(cfg config.SMTPConfig, log zerolog.Logger) ports.MailSender {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, e-mails will only be logged")
		return mail.NewLogSender(log.With().Str("component", "mail").Logger())
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}
