package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func captureLogger(buf *bytes.Buffer) *Logger {
	return New(Options{ServiceName: "test", Output: buf})
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return entry
}

func TestInfoCarriesServiceName(t *testing.T) {
	var buf bytes.Buffer
	logg := captureLogger(&buf)

	logg.Info(context.Background(), "hello")

	entry := lastEntry(t, &buf)
	if entry["service"] != "test" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := captureLogger(&buf)

	ctx := logg.WithOrderID(context.Background(), 42)
	ctx = logg.WithCustomerID(ctx, "C1")
	ctx = logg.WithField(ctx, "source", "http")
	logg.Info(ctx, "replicated")

	entry := lastEntry(t, &buf)
	if entry["order_id"] != float64(42) {
		t.Fatalf("missing order_id: %v", entry)
	}
	if entry["customer_id"] != "C1" || entry["source"] != "http" {
		t.Fatalf("missing context fields: %v", entry)
	}
}

func TestErrorIncludesErrAndStack(t *testing.T) {
	var buf bytes.Buffer
	logg := captureLogger(&buf)

	logg.Error(context.Background(), "boom", errors.New("cause"))

	entry := lastEntry(t, &buf)
	if entry["error"] != "cause" {
		t.Fatalf("missing error field: %v", entry)
	}
	if entry["stack"] == nil {
		t.Fatal("error entries must carry a stack")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf, Level: zerolog.WarnLevel})

	logg.Info(context.Background(), "filtered")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level: %s", buf.String())
	}

	logg.Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("warn must pass at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("debug not parsed")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty must default to info")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Fatal("unknown must default to info")
	}
}
