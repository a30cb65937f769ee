package config

const (
	defaultInputDir           = "screenshots"
	defaultOutputDir          = "output"
	defaultStateDir           = "~/.local/state/scrollback"
	defaultLogDir             = "~/.local/share/scrollback/logs"
	defaultOCRBaseURL         = "http://127.0.0.1:1224"
	defaultOCREndpoint        = "/api/ocr"
	defaultOCRHealthEndpoint  = "/health"
	defaultOCRTimeoutSeconds  = 30
	defaultRegionMargin       = 10
	defaultTimestampBand      = 0.20
	defaultSystemBand         = 0.25
	defaultCenterBand         = 0.15
	defaultCenterConfidence   = 0.8
	defaultSimilarity         = 0.9
	defaultMinSimilarityLen   = 10
	defaultSimilarityMetric   = MetricJaccard
	defaultReviewThreshold    = 0.6
	defaultJudgeProvider      = ProviderOllama
	defaultJudgeModel         = "qwen2:7b"
	defaultJudgeTimeout       = 60
	defaultJudgeMaxChars      = 1000
	defaultJudgeReferer       = "https://github.com/scrollback/scrollback"
	defaultJudgeTitle         = "scrollback naturalness judge"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultConfigRelativePath = "scrollback/config.toml"
)

// Similarity metrics understood by the deduplicator.
const (
	MetricJaccard     = "jaccard"
	MetricLevenshtein = "levenshtein"
)

// Judge providers.
const (
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// Recognition languages accepted for the detection passes.
const (
	LangZH = "zh"
	LangJA = "ja"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		OCR: OCR{
			BaseURL:        defaultOCRBaseURL,
			Endpoint:       defaultOCREndpoint,
			HealthEndpoint: defaultOCRHealthEndpoint,
			PrimaryLang:    LangZH,
			SecondaryLang:  LangJA,
			TimeoutSeconds: defaultOCRTimeoutSeconds,
			RegionMargin:   defaultRegionMargin,
		},
		Classify: Classify{
			TimestampBand:          defaultTimestampBand,
			SystemBand:             defaultSystemBand,
			CenterBand:             defaultCenterBand,
			CenterConfidenceFactor: defaultCenterConfidence,
		},
		Dedupe: Dedupe{
			SimilarityThreshold: defaultSimilarity,
			MinSimilarityLength: defaultMinSimilarityLen,
			Metric:              defaultSimilarityMetric,
			Sort:                true,
		},
		Refine: Refine{
			MinNaturalness:  0,
			ReviewThreshold: defaultReviewThreshold,
		},
		Judge: Judge{
			Enabled:        false,
			Provider:       defaultJudgeProvider,
			Model:          defaultJudgeModel,
			TimeoutSeconds: defaultJudgeTimeout,
			MaxChars:       defaultJudgeMaxChars,
			Referer:        defaultJudgeReferer,
			Title:          defaultJudgeTitle,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
