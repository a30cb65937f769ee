package pipeline

import (
	"log/slog"
	"time"

	"scrollback/internal/classify"
	"scrollback/internal/config"
	"scrollback/internal/dedupe"
	"scrollback/internal/judge"
	"scrollback/internal/logging"
	"scrollback/internal/observe"
	"scrollback/internal/ocr"
	"scrollback/internal/refine"
)

// Stage names used in logs and error details.
const (
	StageExtract = "extract"
	StageDedupe  = "dedupe"
	StageRefine  = "refine"
)

// Deps are the collaborators a Runner drives. Only Primary is required for
// extraction; a nil Judge disables external scoring and nil Metrics record
// nothing.
type Deps struct {
	Primary   ocr.Detector
	Secondary ocr.Detector
	Judge     judge.Judge
	Metrics   *observe.Metrics
	Logger    *slog.Logger
}

// Runner executes pipeline stages for one configuration.
type Runner struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	metrics *observe.Metrics
}

// New builds a Runner.
func New(cfg *config.Config, deps Deps) *Runner {
	return &Runner{
		cfg:     cfg,
		deps:    deps,
		logger:  logging.NewComponentLogger(deps.Logger, "pipeline"),
		metrics: deps.Metrics,
	}
}

// ExtractSummary reports what an extract pass did.
type ExtractSummary struct {
	RunID      string
	OutputPath string
	// Total is the number of screenshots found in the input directory.
	Total int
	// Processed counts images recorded in the checkpoint by this pass.
	Processed int
	// Skipped counts images already recorded by an earlier run.
	Skipped int
	// Failed counts images that were unreadable or where detection failed or
	// found no text. An image whose blocks were all consumed without emitting
	// a message (a timestamp banner) is processed, not failed.
	Failed    int
	Emitted   int
	Cancelled bool
	Elapsed   time.Duration
}

// DedupeSummary reports a dedupe pass.
type DedupeSummary struct {
	InputPath  string
	OutputPath string
	dedupe.Stats
	Malformed int
}

// RefineSummary reports a refine pass.
type RefineSummary struct {
	InputPath  string
	OutputPath string
	refine.Stats
	Kept      int
	Malformed int
}

// Summary aggregates the stages of a full run. Stages that did not run are
// left nil.
type Summary struct {
	Extract *ExtractSummary
	Dedupe  *DedupeSummary
	Refine  *RefineSummary
}

func (r *Runner) classifierOptions() classify.Options {
	return classify.Options{
		TimestampBand:          r.cfg.Classify.TimestampBand,
		SystemBand:             r.cfg.Classify.SystemBand,
		CenterBand:             r.cfg.Classify.CenterBand,
		CenterConfidenceFactor: r.cfg.Classify.CenterConfidenceFactor,
		RegionMargin:           r.cfg.OCR.RegionMargin,
	}
}

func (r *Runner) dedupeOptions() dedupe.Options {
	return dedupe.Options{
		Threshold: r.cfg.Dedupe.SimilarityThreshold,
		MinLength: r.cfg.Dedupe.MinSimilarityLength,
		Metric:    dedupe.Metric(r.cfg.Dedupe.Metric),
		Sort:      r.cfg.Dedupe.Sort,
	}
}
