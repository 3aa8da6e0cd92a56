package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ADDR", "RUN_MIGRATIONS", "BATCH_CONCURRENCY", "SCORE_OBJECTIVE_SHARE", "TEMPLATE_CACHE_TTL", "EMAIL_ENABLED"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Addr != ":8080" || !cfg.RunMigrations || cfg.BatchConcurrency != 8 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ObjectiveShare != 0.7 || cfg.CompetencyShare != 0.3 {
		t.Fatalf("unexpected shares %v/%v", cfg.ObjectiveShare, cfg.CompetencyShare)
	}
	if cfg.TemplateCacheTTL != 5*time.Minute || cfg.EmailEnabled {
		t.Fatalf("unexpected ttl %s or email %v", cfg.TemplateCacheTTL, cfg.EmailEnabled)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("BATCH_CONCURRENCY", "3")
	t.Setenv("SCORE_OBJECTIVE_SHARE", "0.6")
	t.Setenv("TEMPLATE_CACHE_TTL", "30s")
	t.Setenv("DUE_SOON_DAYS", "not-a-number")

	cfg := Load()
	if cfg.Addr != ":9090" || cfg.RunMigrations || cfg.BatchConcurrency != 3 {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if cfg.ObjectiveShare != 0.6 || cfg.TemplateCacheTTL != 30*time.Second {
		t.Fatalf("unexpected share %v ttl %s", cfg.ObjectiveShare, cfg.TemplateCacheTTL)
	}
	if cfg.DueSoonDays != 7 {
		t.Fatalf("expected fallback for bad int, got %d", cfg.DueSoonDays)
	}
}

func valid() Config {
	return Config{
		DatabaseURL:      "postgres://localhost/hrperf",
		Environment:      "development",
		MaxBodyBytes:     1 << 20,
		BatchConcurrency: 4,
		ObjectiveShare:   0.7,
		CompetencyShare:  0.3,
		DueSoonDays:      7,
	}
}

func TestValidate(t *testing.T) {
	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*Config){
		"DATABASE_URL":      func(c *Config) { c.DatabaseURL = "" },
		"JWT_SECRET":        func(c *Config) { c.Environment = "production" },
		"MAX_BODY_BYTES":    func(c *Config) { c.MaxBodyBytes = 10 },
		"BATCH_CONCURRENCY": func(c *Config) { c.BatchConcurrency = 0 },
		"must not exceed 1": func(c *Config) { c.ObjectiveShare = 0.8 },
		"DUE_SOON_DAYS":     func(c *Config) { c.DueSoonDays = -1 },
		"SMTP_HOST":         func(c *Config) { c.EmailEnabled = true },
	}
	for want, mutate := range cases {
		cfg := valid()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error mentioning %q, got %v", want, err)
		}
	}
}
