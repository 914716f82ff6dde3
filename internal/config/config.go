package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string
	LogMode        string

	// Emotion sampling cadence for server-side sensors
	EmotionSampleInterval time.Duration

	// API rate limiting per client IP
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Parent report email (disabled when SESFromEmail is empty)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// Secret for signed read-only report links; random per process when empty
	ReportSigningSecret string

	// Browser origins allowed to call the API; empty disables CORS
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:            getEnv("PORT", "8080"),
		DatabaseType:          getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		DatabasePath:          getEnv("DB_PATH", "./mindquest.db"),
		MigrationsPath:        getEnv("MIGRATIONS_PATH", "./migrations"),
		LogMode:               getEnv("LOG_MODE", "dev"),
		EmotionSampleInterval: getEnvDuration("EMOTION_SAMPLE_INTERVAL", 2*time.Second),
		RateLimitRequests:     getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:       getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:          getEnv("SES_FROM_EMAIL", ""),
		SESFromName:           getEnv("SES_FROM_NAME", "MindQuest"),
		AppBaseURL:            getEnv("APP_BASE_URL", "http://localhost:8080"),
		ReportSigningSecret:   getEnv("REPORT_SIGNING_SECRET", ""),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
	}
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
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
