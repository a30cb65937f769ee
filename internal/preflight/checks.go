package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"scrollback/internal/config"
	"scrollback/internal/fileutil"
	"scrollback/internal/judge"
	"scrollback/internal/services/llm"
	"scrollback/internal/transcript"
)

// HealthChecker is implemented by detectors that expose a health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CheckDetector verifies that a text detection service answers.
func CheckDetector(ctx context.Context, name, url string, detector HealthChecker) Result {
	if url == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := detector.Health(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (unreachable: %s)", url, summarizeError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", url)}
}

// CheckJudge verifies that the configured judge answers. OpenRouter is probed
// with a single health completion; other providers score a short sample.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckJudge(ctx context.Context, cfg config.Judge) Result {
	name := fmt.Sprintf("Judge (%s %s)", cfg.Provider, cfg.Model)
	if cfg.Provider != config.ProviderOllama && cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cfg.Provider == config.ProviderOpenRouter {
		client := llm.NewClient(llm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Referer: cfg.Referer,
			Title:   cfg.Title,
		}, llm.WithRetryMaxAttempts(1))
		if err := client.HealthCheck(checkCtx); err != nil {
			return Result{Name: name, Detail: summarizeError(err)}
		}
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	}

	j, err := judge.New(judge.FromConfig(cfg))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	score, err := j.Score(checkCtx, "こんにちは", transcript.LangJA)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("sample scored %.2f", score)}
}

// CheckInputDirectory verifies that the screenshot directory is readable and
// reports how many screenshots it holds.
func CheckInputDirectory(name, path string) Result {
	if res, ok := statDirectory(name, path); !ok {
		return res
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	images, err := fileutil.ListImages(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: list: %v)", path, err)}
	}
	if len(images) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no .png/.jpg screenshots)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d screenshots)", path, len(images))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if res, ok := statDirectory(name, path); !ok {
		return res
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func statDirectory(name, path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}, false
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}, false
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}, false
	}
	return Result{}, true
}

// summarizeError produces a human-readable summary for health check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (service unreachable)"
	}
	return err.Error()
}
