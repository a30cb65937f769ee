package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scrollback/internal/config"
	"scrollback/internal/judge"
	"scrollback/internal/logging"
	"scrollback/internal/observe"
	"scrollback/internal/ocr"
	"scrollback/internal/pipeline"
	"scrollback/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Values already in the environment win over .env.
		_ = godotenv.Load(".env")

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// session bundles what a stage command needs: the validated config, a
// logger, the metrics provider and a runner wired to them.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *observe.Provider
	runner   *pipeline.Runner
}

// newSession builds a runner for cfg. Detectors are always constructed; the
// judge only when withJudge is set and [judge] is enabled.
func (c *commandContext) newSession(cfg *config.Config, withJudge bool) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "validate flags", "", err)
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	provider, err := observe.NewProvider(version)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	deps := pipeline.Deps{
		Primary: ocr.NewHTTPDetector(ocr.HTTPConfig{
			BaseURL:        cfg.OCR.BaseURL,
			Endpoint:       cfg.OCR.Endpoint,
			HealthEndpoint: cfg.OCR.HealthEndpoint,
			Language:       cfg.OCR.PrimaryLang,
			TimeoutSeconds: cfg.OCR.TimeoutSeconds,
		}),
		Secondary: ocr.NewHTTPDetector(ocr.HTTPConfig{
			BaseURL:        cfg.OCR.SecondaryBaseURL,
			Endpoint:       cfg.OCR.Endpoint,
			HealthEndpoint: cfg.OCR.HealthEndpoint,
			Language:       cfg.OCR.SecondaryLang,
			TimeoutSeconds: cfg.OCR.TimeoutSeconds,
		}),
		Metrics: provider.Metrics,
		Logger:  logger,
	}
	if withJudge && cfg.Judge.Enabled {
		j, err := judge.New(judge.FromConfig(cfg.Judge))
		if err != nil {
			_ = provider.Shutdown(context.Background())
			return nil, services.Wrap(services.ErrConfiguration, "cli", "init judge", "", err)
		}
		deps.Judge = j
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		runner:   pipeline.New(cfg, deps),
	}, nil
}

// close dumps metrics to the configured textfile and stops the provider.
func (s *session) close() {
	if err := s.provider.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		logging.Warn(s.logger, "metrics textfile not written", "metrics_failed",
			"check that metrics.textfile points at a writable location", logging.Error(err))
	}
	_ = s.provider.Shutdown(context.Background())
}

// configCopy returns a copy of the loaded config that flags may modify.
func (c *commandContext) configCopy() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	clone := *cfg
	return &clone, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
