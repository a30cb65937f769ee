package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"scrollback/internal/config"
	"scrollback/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	ocr        *fakeOCR
}

// setupCLITestEnv writes a config pointing at a fake OCR service and two
// overlapping screenshots.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	ocr := newFakeOCR(t)
	cfg := testsupport.NewConfig(t, testsupport.WithOCRURL(ocr.URL()))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	t.Setenv("SCROLLBACK_OCR_URL", "")

	testsupport.WritePNG(t, cfg.Paths.InputDir, "01.png", 100, 400)
	testsupport.WritePNG(t, cfg.Paths.InputDir, "02.png", 100, 400)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, ocr: ocr}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ninput_dir = %q\noutput_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n[ocr]\nbase_url = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.InputDir,
		cfg.Paths.OutputDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.OCR.BaseURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// fakeOCR answers every screenshot with the same page: a centered timestamp,
// a right-hand Japanese bubble and a left-hand Chinese bubble. Region passes
// with the Japanese model return the right-hand text.
type fakeOCR struct {
	srv      *httptest.Server
	detects  atomic.Int64
	regional atomic.Int64
}

func newFakeOCR(t *testing.T) *fakeOCR {
	t.Helper()
	f := &fakeOCR{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOCR) URL() string { return f.srv.URL }

func (f *fakeOCR) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.WriteHeader(http.StatusOK)
		return
	}
	var req struct {
		Options map[string]string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.detects.Add(1)

	var data []map[string]any
	if strings.Contains(req.Options["ocr.language"], "japan") {
		f.regional.Add(1)
		data = []map[string]any{span(20, 10, "今日はいい天気ですね", 0.95)}
	} else {
		data = []map[string]any{
			span(50, 20, "2025-6-18 20:03", 0.99),
			span(80, 60, "今日はいい天気ですわ", 0.7),
			span(20, 100, "你好吗", 0.8),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 100, "data": data})
}

func span(x, y float64, text string, score float64) map[string]any {
	return map[string]any{
		"text":  text,
		"score": score,
		"box":   [][2]float64{{x - 10, y - 5}, {x + 10, y - 5}, {x + 10, y + 5}, {x - 10, y + 5}},
	}
}
