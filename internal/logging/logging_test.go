package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupStdoutOnly(t *testing.T) {
	logger, err := Setup(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if logger == nil {
		t.Fatal("Setup() returned nil logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestSetupCreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	_, err := Setup(Options{Level: "info", Dir: dir, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestSetupRejectsInvalidRotation(t *testing.T) {
	_, err := Setup(Options{Level: "info", Dir: t.TempDir(), MaxSizeMB: 0, MaxBackups: 3, MaxAgeDays: 14})
	if err == nil {
		t.Fatal("Setup() should reject zero max size when a log dir is set")
	}
}
