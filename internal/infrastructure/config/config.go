package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const envProduction = "production"

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	RateLimit RateLimitConfig

	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
}

type AuthConfig struct {
	TokenTTL            time.Duration `env:"TOKEN_TTL,             default=168h"`
	OTPTTL              time.Duration `env:"OTP_TTL,               default=10m"`
	ResetTokenTTL       time.Duration `env:"RESET_TOKEN_TTL,       default=30m"`
	BcryptCost          int           `env:"BCRYPT_COST,           default=10"`
	DefaultProfilePhoto string        `env:"DEFAULT_PROFILE_PHOTO"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://127.0.0.1:27017"`
	Database string `env:"MONGO_DB,  default=Blogcom"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SMTPConfig struct {
	// Host left empty selects the log-only mailer.
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,     default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	Workers  int    `env:"MAIL_WORKERS,  default=4"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=3"`
	Burst int     `env:"RATE_LIMIT_BURST, default=5"`
}

// IsProduction reports whether the service runs with production error
// wording and without development-only routes.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), envProduction)
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig. Variables already set in the environment
// take precedence over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
