package testsupport

import (
	"path/filepath"
	"testing"

	"scrollback/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Logging goes to stderr only and the judge is disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "screenshots")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = ""
	cfgVal.Judge.Enabled = false
	cfgVal.Judge.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOCRURL points both detection passes at url.
func WithOCRURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OCR.BaseURL = url
		b.cfg.OCR.SecondaryBaseURL = url
	}
}

// WithMinNaturalness sets the refine filter floor.
func WithMinNaturalness(v float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Refine.MinNaturalness = v
	}
}

// WithLogDir enables the JSON log file under the temp base.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
