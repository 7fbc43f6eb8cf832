package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type secret struct{ value string }

func (secret) LogValue() slog.Value { return slog.StringValue(Placeholder()) }

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.With("run", 3).Info(context.Background(), "round done", "node", 4, Redacted("sk"))
	out := buf.String()
	for _, want := range []string{"round done", "run=3", "node=4", "sk=[redacted]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q does not contain %q", out, want)
		}
	}
}

func TestNewNilUsesDefault(t *testing.T) {
	if New(nil) == nil {
		t.Fatal("New(nil) returned nil")
	}
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZap(zap.New(core)).With("worker", 1)
	ctx := context.Background()

	logger.Debug(ctx, "d")
	logger.Info(ctx, "progress", "runs", 10, slog.Float64("rmse", 0.5))
	logger.Warn(ctx, "w", "key", secret{value: "lambda"})
	logger.Error(ctx, "e", "dangling")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	info := entries[1].ContextMap()
	if info["worker"] != int64(1) || info["runs"] != int64(10) || info["rmse"] != 0.5 {
		t.Fatalf("unexpected fields %v", info)
	}

	warn := entries[2].ContextMap()
	if warn["key"] != Placeholder() {
		t.Fatalf("secret leaked into zap fields: %v", warn)
	}

	if entries[3].ContextMap()["!BADKEY"] != "dangling" {
		t.Fatalf("dangling key not preserved: %v", entries[3].ContextMap())
	}
	if entries[0].Level != zapcore.DebugLevel || entries[3].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected levels %v, %v", entries[0].Level, entries[3].Level)
	}
}

func TestZapNilIsNop(t *testing.T) {
	NewZap(nil).Info(context.Background(), "discarded")
}
