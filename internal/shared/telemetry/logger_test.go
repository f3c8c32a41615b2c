package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsAreForwarded(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Error("certificate.blob_delete_failed", map[string]any{
		"certificate_id": "c-1",
		"error":          errors.New("boom"),
	})

	entries := logs.FilterMessage("certificate.blob_delete_failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["certificate_id"] != "c-1" {
		t.Fatalf("unexpected certificate_id: %v", ctx["certificate_id"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", ctx["error"])
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
}
