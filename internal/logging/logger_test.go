package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelDebug, Options{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	logger.Info("orchestration started", "features", 3)

	data, err := os.ReadFile(filepath.Join(dir, "maestro.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	line := strings.TrimSpace(string(data))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	if entry["msg"] != "orchestration started" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["features"] != float64(3) {
		t.Errorf("unexpected features attr: %v", entry["features"])
	}
}

func TestLogger_ChildAttributes(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo, Options{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	child := logger.WithFeature("auth").WithStage("provisioning")
	child.Info("workspace created")

	data, err := os.ReadFile(filepath.Join(dir, "maestro.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("parse log line: %v", err)
	}
	if entry["feature"] != "auth" {
		t.Errorf("expected feature auth, got %v", entry["feature"])
	}
	if entry["stage"] != "provisioning" {
		t.Errorf("expected stage provisioning, got %v", entry["stage"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelWarn, Options{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("should appear")

	data, _ := os.ReadFile(filepath.Join(dir, "maestro.log"))
	content := string(data)
	if strings.Contains(content, "should not appear") {
		t.Error("low-level messages leaked through WARN filter")
	}
	if !strings.Contains(content, "should appear") {
		t.Error("WARN message missing from log")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != parseLevel(tt.want) {
			t.Errorf("parseLevel(%q) = %v, want level of %q", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	// Must not panic and must tolerate child derivation.
	logger.WithFeature("x").Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}
}
