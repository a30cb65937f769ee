package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories a run reads from and writes to.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// OCR configures the text detection service. Two passes are made against it:
// the primary pass over whole screenshots and the secondary pass over the
// right-hand speaker's bubbles.
type OCR struct {
	BaseURL          string `toml:"base_url"`
	SecondaryBaseURL string `toml:"secondary_base_url"`
	Endpoint         string `toml:"endpoint"`
	HealthEndpoint   string `toml:"health_endpoint"`
	PrimaryLang      string `toml:"primary_lang"`
	SecondaryLang    string `toml:"secondary_lang"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	// RegionMargin is the padding in pixels added around a bubble before the
	// secondary pass.
	RegionMargin int `toml:"region_margin"`
}

// Classify holds the horizontal bands (fractions of image width measured from
// the center) used to tell timestamps, system notices and bubbles apart.
type Classify struct {
	TimestampBand          float64 `toml:"timestamp_band"`
	SystemBand             float64 `toml:"system_band"`
	CenterBand             float64 `toml:"center_band"`
	CenterConfidenceFactor float64 `toml:"center_confidence_factor"`
}

// Dedupe configures near-duplicate detection across overlapping screenshots.
type Dedupe struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MinSimilarityLength int     `toml:"min_similarity_length"`
	Metric              string  `toml:"metric"`
	Sort                bool    `toml:"sort"`
}

// Refine configures normalisation and naturalness scoring.
type Refine struct {
	MinNaturalness  float64 `toml:"min_naturalness"`
	ReviewThreshold float64 `toml:"review_threshold"`
	CorrectionsFile string  `toml:"corrections_file"`
}

// Judge configures the optional external language-quality judge.
type Judge struct {
	Enabled        bool   `toml:"enabled"`
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxChars       int    `toml:"max_chars"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the Prometheus textfile written after each run.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for scrollback.
type Config struct {
	Paths    Paths    `toml:"paths"`
	OCR      OCR      `toml:"ocr"`
	Classify Classify `toml:"classify"`
	Dedupe   Dedupe   `toml:"dedupe"`
	Refine   Refine   `toml:"refine"`
	Judge    Judge    `toml:"judge"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return expandPath(filepath.Join(base, defaultConfigRelativePath))
	}
	return expandPath("~/.config/" + defaultConfigRelativePath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("scrollback.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the output, state and log directories. The input
// directory is never created: a missing input is reported by the run itself.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExtractOutputPath is the JSONL file the extract stage appends to.
func (c *Config) ExtractOutputPath() string {
	return filepath.Join(c.Paths.OutputDir, "conversations.jsonl")
}

// DedupeOutputPath is the JSONL file written by the dedupe stage.
func (c *Config) DedupeOutputPath() string {
	return filepath.Join(c.Paths.OutputDir, "deduped.jsonl")
}

// RefineOutputPath is the JSONL file written by the refine stage.
func (c *Config) RefineOutputPath() string {
	return filepath.Join(c.Paths.OutputDir, "refined.jsonl")
}

// CheckpointPath is the SQLite database holding resumption bookkeeping.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.Paths.StateDir, "checkpoint.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
