package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"appointment-booking-api/internal/config"
)

func TestJSONDefaults(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3")
	l.With("component", "notify").Info("hello", "n", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %v: %s", err, buf.String())
	}
	for k, want := range map[string]any{
		"msg": "hello", "service": "appointment-booking-api", "version": "1.2.3", "component": "notify",
	} {
		if rec[k] != want {
			t.Errorf("%s = %v, want %v", k, rec[k], want)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, config.LoggingConfig{Level: "warn", Format: "text"}, "dev")
	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info line should be filtered")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn line missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARNING": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
