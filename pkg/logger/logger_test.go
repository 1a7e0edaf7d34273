package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerEmitsServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf, Level: zerolog.InfoLevel})

	ctx := logg.WithTenantID(context.Background(), "tenant-1")
	ctx = logg.WithField(ctx, "job", "reminder-due")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["service"] != "test" {
		t.Fatalf("expected service=test, got %v", entry["service"])
	}
	if entry["tenant_id"] != "tenant-1" {
		t.Fatalf("expected tenant_id field, got %v", entry["tenant_id"])
	}
	if entry["job"] != "reminder-due" {
		t.Fatalf("expected job field, got %v", entry["job"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("expected message=hello, got %v", entry["message"])
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", got)
	}
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("expected info level for empty input, got %s", got)
	}
}

func TestFieldsDoNotLeakAcrossContexts(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	_ = logg.WithField(context.Background(), "scoped", "yes")
	logg.Info(context.Background(), "plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if _, ok := entry["scoped"]; ok {
		t.Fatal("field from derived context leaked into base logger")
	}
}
