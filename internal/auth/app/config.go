package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fourthandlong/pickpool/pkg/jwtx"
)

type Config struct {
	Issuer        string // Issuer claim for tokens (default: pickpool-auth)
	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Optional: HMAC secret for refresh tokens (falls back to AccessSecret)

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 168h)
	ResetTTL   time.Duration // Password reset token lifetime (default: 1h)

	DatabaseFile         string        // Path to SQLite database file (default: ./auth.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	// Admin bootstrap. When no admin exists and all three are set, the
	// account is created non-interactively on startup.
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// AdminNotifyEmail receives new-registration notices. Empty disables.
	AdminNotifyEmail string

	// SMTP settings. An empty host selects the log-only mailer.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// ResetLinkBase is the front-end URL reset tokens are appended to.
	ResetLinkBase string
}

func LoadConfig() Config {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	return Config{
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "pickpool-auth"),
		AccessSecret:  os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("AUTH_REFRESH_SECRET"),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		ResetTTL:   getEnvDurationOrDefault("AUTH_RESET_TTL", time.Hour),

		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		AdminNotifyEmail: os.Getenv("ADMIN_NOTIFY_EMAIL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "noreply@pickpool.local"),

		ResetLinkBase: getEnvOrDefault("RESET_LINK_BASE", "http://localhost:3000/reset-password"),
	}
}

// IsProduction reports whether the service runs with production hardening,
// which raises the bcrypt cost and forbids interactive bootstrap.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Accept bare integers as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
