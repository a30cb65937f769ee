package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateClassify(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validateRefine(); err != nil {
		return err
	}
	if err := c.validateJudge(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOCR() error {
	if c.OCR.BaseURL == "" {
		return errors.New("ocr.base_url must be set (or SCROLLBACK_OCR_URL)")
	}
	for key, raw := range map[string]string{"ocr.base_url": c.OCR.BaseURL, "ocr.secondary_base_url": c.OCR.SecondaryBaseURL} {
		if raw == "" && key == "ocr.secondary_base_url" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
		}
	}
	if c.OCR.TimeoutSeconds <= 0 {
		return errors.New("ocr.timeout_seconds must be positive")
	}
	if c.OCR.RegionMargin < 0 {
		return errors.New("ocr.region_margin must not be negative")
	}
	for key, lang := range map[string]string{"ocr.primary_lang": c.OCR.PrimaryLang, "ocr.secondary_lang": c.OCR.SecondaryLang} {
		if lang != LangZH && lang != LangJA {
			return fmt.Errorf("%s must be %q or %q, got %q", key, LangZH, LangJA, lang)
		}
	}
	return nil
}

func (c *Config) validateClassify() error {
	bands := []struct {
		key   string
		value float64
	}{
		{"classify.timestamp_band", c.Classify.TimestampBand},
		{"classify.system_band", c.Classify.SystemBand},
		{"classify.center_band", c.Classify.CenterBand},
	}
	for _, band := range bands {
		if band.value <= 0 || band.value > 0.5 {
			return fmt.Errorf("%s must be greater than 0 and at most 0.5", band.key)
		}
	}
	if !unitInterval(c.Classify.CenterConfidenceFactor) {
		return errors.New("classify.center_confidence_factor must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if !unitInterval(c.Dedupe.SimilarityThreshold) {
		return errors.New("dedupe.similarity_threshold must be between 0 and 1")
	}
	if c.Dedupe.MinSimilarityLength < 0 {
		return errors.New("dedupe.min_similarity_length must not be negative")
	}
	switch c.Dedupe.Metric {
	case MetricJaccard, MetricLevenshtein:
	default:
		return fmt.Errorf("dedupe.metric must be %q or %q, got %q", MetricJaccard, MetricLevenshtein, c.Dedupe.Metric)
	}
	return nil
}

func (c *Config) validateRefine() error {
	if !unitInterval(c.Refine.MinNaturalness) {
		return errors.New("refine.min_naturalness must be between 0 and 1")
	}
	if !unitInterval(c.Refine.ReviewThreshold) {
		return errors.New("refine.review_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateJudge() error {
	if !c.Judge.Enabled {
		return nil
	}
	if c.Judge.Model == "" {
		return errors.New("judge.model must be set when judge.enabled is true")
	}
	if c.Judge.TimeoutSeconds <= 0 {
		return errors.New("judge.timeout_seconds must be positive")
	}
	switch c.Judge.Provider {
	case ProviderOllama:
	case ProviderOpenAI:
		if c.Judge.APIKey == "" && c.Judge.BaseURL == "" {
			return errors.New("judge.api_key must be set for the openai provider (or OPENAI_API_KEY), unless judge.base_url points at a local endpoint")
		}
	case ProviderOpenRouter:
		if c.Judge.APIKey == "" {
			return errors.New("judge.api_key must be set for the openrouter provider (or OPENROUTER_API_KEY)")
		}
	default:
		return fmt.Errorf("judge.provider must be one of %q, %q, %q; got %q", ProviderOllama, ProviderOpenAI, ProviderOpenRouter, c.Judge.Provider)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
