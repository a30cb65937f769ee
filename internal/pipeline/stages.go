package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"scrollback/internal/dedupe"
	"scrollback/internal/judge"
	"scrollback/internal/logging"
	"scrollback/internal/refine"
	"scrollback/internal/services"
	"scrollback/internal/transcript"
)

// Dedupe reads input, removes duplicates and atomically writes output. Empty
// paths fall back to the configured stage files.
func (r *Runner) Dedupe(ctx context.Context, input, output string) (DedupeSummary, error) {
	if input == "" {
		input = r.cfg.ExtractOutputPath()
	}
	if output == "" {
		output = r.cfg.DedupeOutputPath()
	}
	summary := DedupeSummary{InputPath: input, OutputPath: output}
	stageCtx := services.WithStage(ctx, StageDedupe)
	logger := logging.WithContext(stageCtx, r.logger)

	msgs, read, err := r.readStageInput(stageCtx, StageDedupe, input)
	if err != nil {
		return summary, err
	}
	summary.Malformed = read.Skipped

	kept, stats := dedupe.New(r.dedupeOptions()).Run(msgs)
	summary.Stats = stats
	if err := transcript.WriteFile(output, kept); err != nil {
		return summary, services.Wrap(services.ErrTransient, StageDedupe, "write output", output, err)
	}

	r.metrics.Dropped(stageCtx, "exact", stats.ExactDrops)
	r.metrics.Dropped(stageCtx, "near", stats.NearDrops)
	logger.Info("dedupe completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("output", output),
		logging.Int("input", stats.Input),
		logging.Int("kept", stats.Kept),
		logging.Int("exact_drops", stats.ExactDrops),
		logging.Int("near_drops", stats.NearDrops),
	)
	return summary, nil
}

// Refine normalises and scores input and atomically writes the messages that
// meet refine.min_naturalness. Nothing is written when ctx is cancelled.
func (r *Runner) Refine(ctx context.Context, input, output string) (RefineSummary, error) {
	if input == "" {
		input = r.cfg.DedupeOutputPath()
	}
	if output == "" {
		output = r.cfg.RefineOutputPath()
	}
	summary := RefineSummary{InputPath: input, OutputPath: output}
	stageCtx := services.WithStage(ctx, StageRefine)
	logger := logging.WithContext(stageCtx, r.logger)

	var corrections []refine.Correction
	if path := strings.TrimSpace(r.cfg.Refine.CorrectionsFile); path != "" {
		loaded, err := refine.LoadCorrections(path)
		if err != nil {
			return summary, services.Wrap(services.ErrConfiguration, StageRefine, "load corrections", path, err)
		}
		corrections = loaded
	}

	msgs, read, err := r.readStageInput(stageCtx, StageRefine, input)
	if err != nil {
		return summary, err
	}
	summary.Malformed = read.Skipped

	refiner := refine.New(refine.Options{
		ReviewThreshold: r.cfg.Refine.ReviewThreshold,
		Corrections:     corrections,
		Judge:           r.instrumentedJudge(stageCtx),
	}, r.deps.Logger)
	kept := refiner.RefineAll(stageCtx, msgs, r.cfg.Refine.MinNaturalness)
	summary.Stats = refiner.Stats()
	summary.Kept = len(kept)
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if err := transcript.WriteFile(output, kept); err != nil {
		return summary, services.Wrap(services.ErrTransient, StageRefine, "write output", output, err)
	}

	r.metrics.Flagged(stageCtx, summary.Flagged)
	r.metrics.Dropped(stageCtx, "filtered", summary.Filtered)
	logger.Info("refine completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("output", output),
		logging.Int("processed", summary.Processed),
		logging.Int("scored", summary.Scored),
		logging.Int("flagged", summary.Flagged),
		logging.Int("filtered", summary.Filtered),
		logging.Int("judge_failures", summary.JudgeFailures),
	)
	return summary, nil
}

// Run executes extract, dedupe and refine in order using the configured
// paths. A cancelled extract stops the run before dedupe.
func (r *Runner) Run(ctx context.Context, opts ExtractOptions) (Summary, error) {
	var summary Summary
	extracted, err := r.Extract(ctx, opts)
	summary.Extract = &extracted
	if err != nil || extracted.Cancelled {
		return summary, err
	}

	deduped, err := r.Dedupe(ctx, extracted.OutputPath, r.cfg.DedupeOutputPath())
	summary.Dedupe = &deduped
	if err != nil {
		return summary, err
	}

	refined, err := r.Refine(ctx, deduped.OutputPath, r.cfg.RefineOutputPath())
	summary.Refine = &refined
	return summary, err
}

func (r *Runner) readStageInput(ctx context.Context, stage, input string) ([]transcript.Message, transcript.ReadStats, error) {
	msgs, read, err := transcript.ReadFile(input, logging.WithContext(ctx, r.deps.Logger))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, read, services.Wrap(services.ErrNotFound, stage, "read input", input, err)
		}
		return nil, read, services.Wrap(services.ErrDecode, stage, "read input", input, err)
	}
	if len(msgs) == 0 {
		return nil, read, services.Wrap(services.ErrValidation, stage, "read input", input, transcript.ErrEmptyInput)
	}
	return msgs, read, nil
}

func (r *Runner) instrumentedJudge(ctx context.Context) judge.Judge {
	if r.deps.Judge == nil {
		return nil
	}
	provider := r.cfg.Judge.Provider
	if named, ok := r.deps.Judge.(interface{ Name() string }); ok {
		provider = named.Name()
	}
	return judge.Instrument(r.deps.Judge, func(elapsed time.Duration, err error) {
		r.metrics.JudgeCall(ctx, provider, elapsed, err)
	})
}
