package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Reset    ResetConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	TrustedProxies []string
}

// ResetConfig holds the reset protocol policy. These are injected into the
// service rather than hardcoded so tests can shrink windows.
type ResetConfig struct {
	TokenExpiry        time.Duration // validity window of an issued token
	RateLimitWindow    time.Duration // trailing window for counting issuance requests
	RateLimitMax       int           // issuance requests allowed per email per window
	PasswordMinLen     int
	PasswordMaxLen     int
	SweepInterval      time.Duration // how often expired tokens are tombstoned in bulk
	AuditRetentionDays int
}

type EmailConfig struct {
	AWSRegion      string
	FromAddress    string
	ResetURLBase   string // e.g., https://admin.ivoo.app
	SupportContact string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "ivoo"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		Reset: ResetConfig{
			TokenExpiry:        getEnvAsDuration("RESET_TOKEN_EXPIRY", 30*time.Minute),
			RateLimitWindow:    getEnvAsDuration("RESET_RATE_LIMIT_WINDOW", 60*time.Minute),
			RateLimitMax:       getEnvAsInt("RESET_RATE_LIMIT_MAX", 5),
			PasswordMinLen:     getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
			PasswordMaxLen:     getEnvAsInt("PASSWORD_MAX_LENGTH", 128),
			SweepInterval:      getEnvAsDuration("RESET_SWEEP_INTERVAL", 1*time.Hour),
			AuditRetentionDays: getEnvAsInt("RESET_AUDIT_RETENTION_DAYS", 90),
		},
		Email: EmailConfig{
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			FromAddress:    getEnv("EMAIL_FROM_ADDRESS", "no-reply@ivoo.app"),
			ResetURLBase:   getEnv("RESET_URL_BASE", "http://localhost:3000"),
			SupportContact: getEnv("SUPPORT_EMAIL", "support@ivoo.app"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := cfg.Reset.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects policy combinations that would neuter the protocol.
func (c *ResetConfig) Validate() error {
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("RESET_TOKEN_EXPIRY must be positive")
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMax <= 0 {
		return fmt.Errorf("reset rate limit window and ceiling must be positive")
	}
	if c.PasswordMinLen < 1 || c.PasswordMaxLen < c.PasswordMinLen {
		return fmt.Errorf("password length bounds are inconsistent (min=%d, max=%d)", c.PasswordMinLen, c.PasswordMaxLen)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
