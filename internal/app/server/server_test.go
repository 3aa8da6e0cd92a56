package server

import (
	"context"
	"log/slog"
	"testing"

	"hrperf/internal/platform/config"
)

func TestRedactDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://hr:secret@db:5432/hrperf?sslmode=disable": "postgres://hr:***@db:5432/hrperf?sslmode=disable",
		"postgres://hr@db/hrperf":                             "postgres://hr@db/hrperf",
		"host=db user=hr":                                     "host=db user=hr",
	}
	for in, want := range cases {
		if got := redactDSN(in); got != want {
			t.Fatalf("redactDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger(config.Config{Environment: "production", LogLevel: "warn"})
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn should be enabled")
	}

	logger = NewLogger(config.Config{Environment: "development", LogLevel: "nonsense"})
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("unknown level should fall back to info")
	}
}
