package preflight

import (
	"context"

	"scrollback/internal/config"
	"scrollback/internal/ocr"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckInputDirectory("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	results = append(results, detectorChecks(ctx, cfg)...)

	if cfg.Judge.Enabled {
		results = append(results, CheckJudge(ctx, cfg.Judge))
	}

	return results
}

// ForExtract runs the checks extraction cannot proceed without: a readable
// input directory and reachable detection services.
func ForExtract(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckInputDirectory("Input directory", cfg.Paths.InputDir)}
	return append(results, detectorChecks(ctx, cfg)...)
}

func detectorChecks(ctx context.Context, cfg *config.Config) []Result {
	primary := ocr.NewHTTPDetector(ocr.HTTPConfig{
		BaseURL:        cfg.OCR.BaseURL,
		Endpoint:       cfg.OCR.Endpoint,
		HealthEndpoint: cfg.OCR.HealthEndpoint,
		TimeoutSeconds: cfg.OCR.TimeoutSeconds,
	})
	results := []Result{CheckDetector(ctx, "OCR service", cfg.OCR.BaseURL, primary)}

	// Secondary pass (only when it uses a distinct endpoint)
	if cfg.OCR.SecondaryBaseURL != "" && cfg.OCR.SecondaryBaseURL != cfg.OCR.BaseURL {
		secondary := ocr.NewHTTPDetector(ocr.HTTPConfig{
			BaseURL:        cfg.OCR.SecondaryBaseURL,
			Endpoint:       cfg.OCR.Endpoint,
			HealthEndpoint: cfg.OCR.HealthEndpoint,
			TimeoutSeconds: cfg.OCR.TimeoutSeconds,
		})
		results = append(results, CheckDetector(ctx, "OCR service (secondary)", cfg.OCR.SecondaryBaseURL, secondary))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
