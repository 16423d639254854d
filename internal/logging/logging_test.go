package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Options{Level: "info", Format: "text"}, &buf)

	logger.Info("expanding class", "class", "alignment")

	out := buf.String()
	if !strings.Contains(out, "expanding class") || !strings.Contains(out, "class=alignment") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Options{Level: "info", Format: "json"}, &buf)

	logger.Info("expanding class", "class", "alignment")

	out := buf.String()
	if !strings.Contains(out, `"msg":"expanding class"`) || !strings.Contains(out, `"class":"alignment"`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Options{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should pass at warn: %s", out)
	}
}

func TestNewWithWriter_DebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Options{Level: "error", Debug: true}, &buf)

	logger.Debug("module discovery", "dir", "modules/mirpedrol")

	if !strings.Contains(buf.String(), "module discovery") {
		t.Errorf("debug flag should enable debug logs: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
