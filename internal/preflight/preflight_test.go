package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scrollback/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckInputDirectory(t *testing.T) {
	dir := t.TempDir()
	if result := CheckInputDirectory("input", dir); result.Passed {
		t.Fatal("expected failure for directory without screenshots")
	}
	for _, name := range []string{"a.PNG", "b.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckInputDirectory("input", dir)
	if !result.Passed || !strings.Contains(result.Detail, "2 screenshots") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

type healthFunc func(context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func TestCheckDetector(t *testing.T) {
	ok := CheckDetector(context.Background(), "OCR", "http://ocr", healthFunc(func(context.Context) error { return nil }))
	if !ok.Passed {
		t.Fatalf("expected pass, got %s", ok.Detail)
	}
	down := CheckDetector(context.Background(), "OCR", "http://ocr", healthFunc(func(context.Context) error { return context.DeadlineExceeded }))
	if down.Passed || !strings.Contains(down.Detail, "timed out") {
		t.Fatalf("expected timeout failure, got %+v", down)
	}
	missing := CheckDetector(context.Background(), "OCR", "", healthFunc(func(context.Context) error { return nil }))
	if missing.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestCheckJudge_OpenRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	cfg := config.Judge{Enabled: true, Provider: config.ProviderOpenRouter, Model: "m", BaseURL: srv.URL, APIKey: "good-key"}
	if result := CheckJudge(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.APIKey = "bad-key"
	if result := CheckJudge(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckJudge_OpenAIScoresSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"0.95"}}]}`))
	}))
	defer srv.Close()

	cfg := config.Judge{Enabled: true, Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1/", APIKey: "sk"}
	result := CheckJudge(context.Background(), cfg)
	if !result.Passed || !strings.Contains(result.Detail, "0.95") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckJudge_MissingKey(t *testing.T) {
	result := CheckJudge(context.Background(), config.Judge{Provider: config.ProviderOpenAI, Model: "m"})
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.OCR.BaseURL = srv.URL
	cfg.OCR.SecondaryBaseURL = srv.URL
	cfg.Judge.Enabled = false
	if err := os.WriteFile(filepath.Join(cfg.Paths.InputDir, "1.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg)
	// input + output + state directories and one OCR service
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ChecksDistinctSecondaryAndJudge(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.OCR.BaseURL = "http://127.0.0.1:1"
	cfg.OCR.SecondaryBaseURL = "http://127.0.0.1:2"
	cfg.Judge.Enabled = true
	cfg.Judge.Provider = config.ProviderOpenAI
	cfg.Judge.APIKey = ""

	results := RunAll(context.Background(), &cfg)
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	if !names["OCR service (secondary)"] {
		t.Fatalf("expected secondary OCR check, got %+v", results)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if len(Failed(results)) < 3 {
		t.Fatalf("expected input, OCR and judge checks to fail: %+v", results)
	}
}

func TestForExtractSkipsOutputAndJudge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.OCR.BaseURL = srv.URL
	cfg.OCR.SecondaryBaseURL = srv.URL
	cfg.Judge.Enabled = true

	results := ForExtract(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected input and OCR checks only, got %+v", results)
	}
	if !results[1].Passed {
		t.Fatalf("OCR check failed: %s", results[1].Detail)
	}
}
