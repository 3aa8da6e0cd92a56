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
	Addr             string
	DatabaseURL      string
	JWTSecret        string
	Environment      string
	LogLevel         string
	RunMigrations    bool
	MaxBodyBytes     int64
	BatchConcurrency int
	ObjectiveShare   float64
	CompetencyShare  float64
	DueSoonDays      int
	TemplateCacheTTL time.Duration
	ReminderInterval time.Duration
	MetricsEnabled   bool
	ReportsDir       string
	EmailEnabled     bool
	EmailFrom        string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPUseTLS       bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:             getEnv("APP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		Environment:      getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RunMigrations:    getEnvBool("RUN_MIGRATIONS", true),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 8),
		ObjectiveShare:   getEnvFloat("SCORE_OBJECTIVE_SHARE", 0.7),
		CompetencyShare:  getEnvFloat("SCORE_COMPETENCY_SHARE", 0.3),
		DueSoonDays:      getEnvInt("DUE_SOON_DAYS", 7),
		TemplateCacheTTL: getEnvDuration("TEMPLATE_CACHE_TTL", 5*time.Minute),
		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", 24*time.Hour),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		ReportsDir:       getEnv("REPORTS_DIR", "storage/reports"),
		EmailEnabled:     getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:        getEnv("EMAIL_FROM", "no-reply@hrperf.local"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:       getEnvBool("SMTP_USE_TLS", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.BatchConcurrency <= 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive")
	}
	if c.ObjectiveShare < 0 || c.CompetencyShare < 0 {
		return fmt.Errorf("score shares must not be negative")
	}
	if c.ObjectiveShare+c.CompetencyShare > 1.0001 {
		return fmt.Errorf("SCORE_OBJECTIVE_SHARE + SCORE_COMPETENCY_SHARE must not exceed 1")
	}
	if c.DueSoonDays < 0 {
		return fmt.Errorf("DUE_SOON_DAYS must not be negative")
	}
	if c.EmailEnabled && strings.TrimSpace(c.SMTPHost) == "" {
		return fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	return nil
}
