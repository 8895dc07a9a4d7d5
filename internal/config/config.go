package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is constructed once at
// startup and passed explicitly; there is no package-level singleton.
type Config struct {
	Env  string
	Port string

	// DatabaseURL points at the tenant store (Postgres).
	DatabaseURL string

	// MailSecretKey is the hex-encoded 32-byte AES master key used to
	// decrypt tenant SMTP passwords. Required.
	MailSecretKey string

	// SentryDSN is optional; empty disables error reporting.
	SentryDSN string

	// MaxRequestsPerHour is the per-IP submission budget for the sliding
	// one-hour window.
	MaxRequestsPerHour int

	// RateWindow is the trailing duration the submission budget covers.
	RateWindow time.Duration
}

// Load reads configuration from environment variables and validates it.
// Missing required values are an error: the caller is expected to fail
// startup rather than warn and continue.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MailSecretKey:      os.Getenv("MAIL_SECRET_KEY"),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		MaxRequestsPerHour: getEnvAsInt("MAX_REQUESTS_PER_HOUR", 5),
		RateWindow:         time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values eagerly and aggregates every problem
// into a single error so operators can fix them in one pass.
func (c Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is not set")
	}
	if c.MailSecretKey == "" {
		errs = append(errs, "MAIL_SECRET_KEY is not set")
	} else if !validKeyHex(c.MailSecretKey) {
		errs = append(errs, "MAIL_SECRET_KEY must be 32 bytes encoded as 64 hex characters")
	}
	if c.MaxRequestsPerHour < 1 {
		errs = append(errs, "MAX_REQUESTS_PER_HOUR must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LogSummary writes the effective configuration at startup with secrets
// masked. Replaces ad-hoc startup banners.
func (c Config) LogSummary(log *slog.Logger) {
	log.Info("configuration_loaded",
		"env", c.Env,
		"port", c.Port,
		"database_set", c.DatabaseURL != "",
		"mail_key_set", c.MailSecretKey != "",
		"sentry_set", c.SentryDSN != "",
		"rate_limit_per_hour", c.MaxRequestsPerHour,
	)
}

func validKeyHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func getEnv(name, defaultVal string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
