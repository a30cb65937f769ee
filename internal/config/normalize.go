package config

import (
	"fmt"
	"os"
	"strings"

	"scrollback/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOCR()
	c.normalizeDedupe()
	if err := c.normalizeRefine(); err != nil {
		return err
	}
	c.normalizeJudge()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOCR() {
	if value, ok := os.LookupEnv("SCROLLBACK_OCR_URL"); ok && strings.TrimSpace(value) != "" {
		c.OCR.BaseURL = value
	}
	c.OCR.BaseURL = strings.TrimRight(strings.TrimSpace(c.OCR.BaseURL), "/")
	c.OCR.SecondaryBaseURL = strings.TrimRight(strings.TrimSpace(c.OCR.SecondaryBaseURL), "/")
	if c.OCR.SecondaryBaseURL == "" {
		c.OCR.SecondaryBaseURL = c.OCR.BaseURL
	}
	c.OCR.Endpoint = ensureLeadingSlash(c.OCR.Endpoint, defaultOCREndpoint)
	c.OCR.HealthEndpoint = ensureLeadingSlash(c.OCR.HealthEndpoint, defaultOCRHealthEndpoint)
	c.OCR.PrimaryLang = language.ToISO2(c.OCR.PrimaryLang)
	c.OCR.SecondaryLang = language.ToISO2(c.OCR.SecondaryLang)
}

func (c *Config) normalizeDedupe() {
	c.Dedupe.Metric = strings.ToLower(strings.TrimSpace(c.Dedupe.Metric))
	if c.Dedupe.Metric == "" {
		c.Dedupe.Metric = defaultSimilarityMetric
	}
}

func (c *Config) normalizeRefine() error {
	path := strings.TrimSpace(c.Refine.CorrectionsFile)
	if path == "" {
		c.Refine.CorrectionsFile = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("refine.corrections_file: %w", err)
	}
	c.Refine.CorrectionsFile = expanded
	return nil
}

func (c *Config) normalizeJudge() {
	c.Judge.Provider = strings.ToLower(strings.TrimSpace(c.Judge.Provider))
	if c.Judge.Provider == "" {
		c.Judge.Provider = defaultJudgeProvider
	}
	c.Judge.Model = strings.TrimSpace(c.Judge.Model)
	c.Judge.BaseURL = strings.TrimSpace(c.Judge.BaseURL)

	// Environment wins over the file so keys can stay out of config.toml.
	envKeys := []string{"SCROLLBACK_JUDGE_API_KEY"}
	switch c.Judge.Provider {
	case ProviderOpenRouter:
		envKeys = append(envKeys, "OPENROUTER_API_KEY")
	case ProviderOpenAI:
		envKeys = append(envKeys, "OPENAI_API_KEY")
	}
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			c.Judge.APIKey = value
			break
		}
	}
	c.Judge.APIKey = strings.TrimSpace(c.Judge.APIKey)
	c.Judge.Referer = strings.TrimSpace(c.Judge.Referer)
	c.Judge.Title = strings.TrimSpace(c.Judge.Title)
	if c.Judge.MaxChars <= 0 {
		c.Judge.MaxChars = defaultJudgeMaxChars
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	path := strings.TrimSpace(c.Metrics.Textfile)
	if path == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	c.Metrics.Textfile = expanded
	return nil
}

func ensureLeadingSlash(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		return "/" + value
	}
	return value
}
