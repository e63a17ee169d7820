package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	Environment    string
	LogMode        string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LevelXPStep      int
	StreakGraceHours int

	AppBaseURL           string
	OAuthRedirectBaseURL string
	GoogleClientID       string
	GoogleClientSecret   string
	GitHubClientID       string
	GitHubClientSecret   string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	EmailDebug   bool

	RedisURL           string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		Environment:    getEnv("APP_ENV", "development"),
		LogMode:        getEnv("LOG_MODE", "development"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./finlearn.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		LevelXPStep:      getEnvInt("LEVEL_XP_STEP", 1000),
		StreakGraceHours: getEnvInt("STREAK_GRACE_HOURS", 48),

		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:5173"),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:       getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:   getEnv("GITHUB_CLIENT_SECRET", ""),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Finlearn"),
		EmailDebug:   getEnvBool("EMAIL_DEBUG", false),

		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimitRequests:  getEnvInt("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

// IsDevelopment reports whether verbose error bodies are allowed
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// StreakGrace returns the streak grace window as a duration
func (c *Config) StreakGrace() time.Duration {
	return time.Duration(c.StreakGraceHours) * time.Hour
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET must be set outside development")
		}
		c.JWTSecret = "dev-insecure-secret"
	}
	if c.LevelXPStep <= 0 {
		return errors.New("LEVEL_XP_STEP must be positive")
	}
	if c.StreakGraceHours <= 0 {
		return errors.New("STREAK_GRACE_HOURS must be positive")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
