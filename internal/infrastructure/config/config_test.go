package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.Mongo.URI)
	assert.Equal(t, "Blogcom", cfg.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 4, cfg.SMTP.Workers)
	assert.Equal(t, 3.0, cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "s3cret",
		"ENV":          "Production",
		"TOKEN_TTL":    "1h",
		"OTP_TTL":      "5m",
		"SMTP_HOST":    "smtp.example.com",
		"CORS_ORIGINS": "https://blogcom.dev,https://www.blogcom.dev",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, []string{"https://blogcom.dev", "https://www.blogcom.dev"}, cfg.CORSOrigins)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
		"OTP_TTL":    "ten minutes",
	}))
	assert.Error(t, err)
}
