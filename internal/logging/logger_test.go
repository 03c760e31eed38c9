package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestPrettyHandlerOutputShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger = logger.With(String(FieldComponent, "sets"))
	logger.Info("set saved", String("set", "Biology"), Int("cards", 12))

	line := buf.String()
	if !strings.Contains(line, "INFO sets: set saved") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "set=Biology") || !strings.Contains(line, "cards=12") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Warn("rename skipped", String("set", "World Capitals"))

	if !strings.Contains(buf.String(), `set="World Capitals"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be suppressed, got %q", buf.String())
	}
	logger.Error("shown")
	if !strings.Contains(buf.String(), "ERROR shown") {
		t.Fatalf("expected error output, got %q", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("ignored", String("k", "v"))
	if logger.Enabled(nil, slog.LevelError) {
		t.Fatal("noop logger should report disabled")
	}
}
