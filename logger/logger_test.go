package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"livechart/config"
	"livechart/logger"
)

// go test -v --run TestNewWritesFile
func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "livechart.log")

	log, err := logger.New(config.LogConfig{Level: "info", Format: "json", OutputFile: path, Environment: "test"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("cache hit")
	log.Debug("filtered out")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"cache hit"`) || !strings.Contains(out, `"env":"test"`) {
		t.Errorf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "filtered out") {
		t.Error("debug entry written at info level")
	}
}

// go test -v --run TestNewInvalidLevel
func TestNewInvalidLevel(t *testing.T) {
	if _, err := logger.New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
