package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	return slog.New(newPrettyHandler(buf, levelVar)), buf
}

func TestPrettyHandlerHoistsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	WithComponent(logger, "worker").Info("item complete", Int64("item_id", 42))

	line := buf.String()
	if !strings.Contains(line, " INFO worker: item complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "item_id=42") {
		t.Fatalf("missing attribute in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as key=value: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.Info("upload failed", Error(errors.New("connection refused")))

	line := buf.String()
	if !strings.Contains(line, `error="connection refused"`) {
		t.Fatalf("expected quoted error value, got %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)
	logger.Info("should be dropped")
	logger.Warn("kept")

	line := buf.String()
	if strings.Contains(line, "should be dropped") {
		t.Fatalf("info record leaked through warn level: %q", line)
	}
	if !strings.Contains(line, "WARN kept") {
		t.Fatalf("warn record missing: %q", line)
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.WithGroup("tracker").Info("search", String("query", "abc"))

	if !strings.Contains(buf.String(), "tracker.query=abc") {
		t.Fatalf("expected dotted group key, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" ERROR ": slog.LevelError,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled at any level")
	}
}
