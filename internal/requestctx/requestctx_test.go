package requestctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestValues(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" || Actor(ctx) != "" {
		t.Fatal("empty context should carry nothing")
	}
	ctx = WithActor(WithRequestID(ctx, "req-1"), "u-1")
	if RequestID(ctx) != "req-1" || Actor(ctx) != "u-1" {
		t.Fatalf("unexpected values %q %q", RequestID(ctx), Actor(ctx))
	}
}

func TestLoggerTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithActor(WithRequestID(context.Background(), "req-9"), "u-3")
	Logger(ctx).Warn("evaluation request failed")

	out := buf.String()
	if !strings.Contains(out, "requestId=req-9") || !strings.Contains(out, "actorId=u-3") {
		t.Fatalf("missing tags in %q", out)
	}
}
