package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "console"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("pipeline ready", logging.String("work_dir", "/tmp/media"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record); err != nil {
		t.Fatalf("log file must contain JSON, got %q: %v", data, err)
	}
	if record["msg"] != "pipeline ready" || record["work_dir"] != "/tmp/media" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
}

func TestConsoleLoggerLiftsComponentAndOperation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithOperation(context.Background(), "convert")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "transcoder")).Info("remux finished", logging.Int("exit_code", 0))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO transcoder [convert]: remux finished") {
		t.Fatalf("unexpected console prefix: %q", line)
	}
	if !strings.Contains(line, "exit_code=0") {
		t.Fatalf("expected attribute in %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "playlist cleanup failed", "cleanup_failed", logging.String(logging.FieldImpact, "stray playlist left behind"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "cleanup_failed" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if record[logging.FieldImpact] != "stray playlist left behind" {
		t.Fatalf("caller-provided impact must win, got %v", record[logging.FieldImpact])
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithOperationID(services.WithRequestID(context.Background(), "req-1"), "op-9")
	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.Value.String()
	}
	if got[logging.FieldOperationID] != "op-9" || got[logging.FieldCorrelationID] != "req-1" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[logging.FieldOperation]; ok {
		t.Fatal("operation should be absent when not set")
	}
}
