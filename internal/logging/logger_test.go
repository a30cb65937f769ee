package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scrollback/internal/config"
	"scrollback/internal/services"
)

func TestNewJSONWritesStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "out.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("classified image", String(FieldImage, "IMG_0001.png"), Int("messages", 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode record %q: %v", data, err)
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
	if record["image"] != "IMG_0001.png" {
		t.Fatalf("unexpected image field: %v", record["image"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrettyHandlerHeaderAndFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))
	logger = NewComponentLogger(logger, "classify")

	logger.Info("classified image",
		String(FieldImage, "IMG_0002.png"),
		String(FieldStage, "extract"),
		Int("messages", 4),
	)

	out := buf.String()
	if !strings.Contains(out, "INFO [classify] IMG_0002.png · extract – classified image") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "    - messages: 4") {
		t.Fatalf("expected messages field: %q", out)
	}
	if strings.Contains(out, "- component:") {
		t.Fatalf("component should only appear in the header: %q", out)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestTeeHandlerDuplicatesRecords(t *testing.T) {
	var a, b bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(TeeHandler(newPrettyHandler(&a, lvl, false), nil, newJSONHandler(&b, lvl, false)))
	logger.Warn("judge unavailable", String(FieldEventType, "judge_failed"))

	if !strings.Contains(a.String(), "judge unavailable") {
		t.Fatalf("console copy missing: %q", a.String())
	}
	if !strings.Contains(b.String(), `"event_type":"judge_failed"`) {
		t.Fatalf("json copy missing: %q", b.String())
	}
}

func TestTeeHandlerWithoutHandlersIsNoop(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when no handlers are supplied")
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newJSONHandler(&buf, lvl, false))

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "dedupe")
	WithContext(ctx, base).Info("stage complete")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-1"`) || !strings.Contains(out, `"stage":"dedupe"`) {
		t.Fatalf("expected context fields, got %q", out)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Level = "info"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("run started")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"run started"`) {
		t.Fatalf("unexpected log file contents: %q", data)
	}
}
