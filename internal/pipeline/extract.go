package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"scrollback/internal/checkpoint"
	"scrollback/internal/classify"
	"scrollback/internal/fileutil"
	"scrollback/internal/logging"
	"scrollback/internal/ocr"
	"scrollback/internal/services"
	"scrollback/internal/transcript"
)

// ExtractOptions narrows an extract pass.
type ExtractOptions struct {
	// InputDir overrides paths.input_dir when set.
	InputDir string
	// Output overrides the default transcript path when set.
	Output string
	// Count limits how many new images are processed; zero means all.
	Count int
}

// Extract classifies every unprocessed screenshot and appends the messages to
// the transcript. A cancelled context stops the pass after the image in
// flight and is reported through ExtractSummary.Cancelled, not as an error.
func (r *Runner) Extract(ctx context.Context, opts ExtractOptions) (ExtractSummary, error) {
	start := time.Now()
	inputDir := opts.InputDir
	if inputDir == "" {
		inputDir = r.cfg.Paths.InputDir
	}
	output := opts.Output
	if output == "" {
		output = r.cfg.ExtractOutputPath()
	}
	summary := ExtractSummary{OutputPath: output}

	if r.deps.Primary == nil {
		return summary, services.Wrap(services.ErrConfiguration, StageExtract, "init", "text detector unavailable", nil)
	}
	// Checkpoint rows are keyed by absolute paths.
	var err error
	if inputDir, err = filepath.Abs(inputDir); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, StageExtract, "resolve input", inputDir, err)
	}
	if output, err = filepath.Abs(output); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, StageExtract, "resolve output", output, err)
	}
	summary.OutputPath = output

	images, err := fileutil.ListImages(inputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return summary, services.Wrap(services.ErrNotFound, StageExtract, "list images", inputDir, err)
		}
		return summary, services.Wrap(services.ErrValidation, StageExtract, "list images", inputDir, err)
	}
	summary.Total = len(images)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, StageExtract, "create output directory", "", err)
	}
	lock, err := checkpoint.AcquireLock(output)
	if err != nil {
		return summary, services.Wrap(services.ErrValidation, StageExtract, "lock output", "", err)
	}
	defer func() { _ = lock.Release() }()

	store, err := checkpoint.Open(r.cfg.CheckpointPath())
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, StageExtract, "open checkpoint", "", err)
	}
	defer store.Close()

	processed, err := store.Processed(ctx, output)
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, StageExtract, "load checkpoint", "", err)
	}
	carried, _, err := store.LoadState(ctx, output)
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, StageExtract, "load checkpoint", "", err)
	}

	classifier := classify.New(r.deps.Primary, r.deps.Secondary, r.classifierOptions(), r.deps.Logger)
	classifier.Restore(classify.State{CurrentTimestamp: carried.CurrentTimestamp, Seq: carried.Seq})

	run, err := store.BeginRun(ctx, output)
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, StageExtract, "begin run", "", err)
	}
	summary.RunID = run.ID
	runCtx := services.WithStage(services.WithRunID(ctx, run.ID), StageExtract)
	logger := logging.WithContext(runCtx, r.logger)

	file, err := fileutil.OpenAppend(output)
	if err != nil {
		_ = store.FinishRun(context.WithoutCancel(ctx), run.ID, checkpoint.RunFailed)
		return summary, services.Wrap(services.ErrValidation, StageExtract, "open output", output, err)
	}
	defer file.Close()
	writer := transcript.NewWriter(file)

	logger.Info("extract started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("input_dir", inputDir),
		logging.String("output", output),
		logging.Int("images", len(images)),
		logging.Int("already_processed", len(processed)),
		logging.Int("next_seq", carried.Seq+1),
	)

	status := checkpoint.RunCompleted
	var runErr error
	attempted := 0
	for _, path := range images {
		if _, done := processed[path]; done {
			summary.Skipped++
			continue
		}
		if opts.Count > 0 && attempted >= opts.Count {
			break
		}
		if ctx.Err() != nil {
			summary.Cancelled = true
			status = checkpoint.RunCancelled
			break
		}
		attempted++

		// The image in flight finishes even if ctx is cancelled meanwhile.
		imageCtx := services.WithImage(context.WithoutCancel(runCtx), filepath.Base(path))
		outcome, err := r.extractImage(imageCtx, classifier, store, writer, file, run.ID, output, path)
		if err != nil {
			if errors.Is(err, errImageSkipped) {
				summary.Failed++
				continue
			}
			runErr = err
			status = checkpoint.RunFailed
			break
		}
		summary.Processed++
		summary.Emitted += len(outcome.Messages)
		if outcome.Blocks == 0 {
			summary.Failed++
		}
	}

	if err := store.FinishRun(context.WithoutCancel(ctx), run.ID, status); err != nil {
		logging.Warn(logger, "failed to record run completion", "checkpoint_failed",
			"the run history may show this run as still running", logging.Error(err))
	}
	summary.Elapsed = time.Since(start)
	logger.Info("extract completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("status", string(status)),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("emitted", summary.Emitted),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, runErr
}

var errImageSkipped = errors.New("image skipped")

// extractImage classifies one screenshot, appends and syncs its messages and
// then records it in the checkpoint. Unreadable images return errImageSkipped
// and are retried on the next run.
func (r *Runner) extractImage(ctx context.Context, classifier *classify.Classifier, store *checkpoint.Store, writer *transcript.Writer, file syncer, runID, output, path string) (classify.Result, error) {
	logger := logging.WithContext(ctx, r.logger)
	name := filepath.Base(path)

	img, err := ocr.LoadImage(path)
	if err != nil {
		logging.Warn(logger, "skipping unreadable image", "image_unreadable",
			"check that the file is a valid PNG or JPEG screenshot", logging.Error(err))
		r.metrics.ImageFailed(ctx, "unreadable")
		return classify.Result{}, errImageSkipped
	}

	res, err := classifier.Analyze(ctx, img)
	if err != nil {
		return classify.Result{}, services.Wrap(services.ErrTransient, StageExtract, "classify", name, err)
	}
	for _, msg := range res.Messages {
		if err := writer.Write(msg); err != nil {
			return classify.Result{}, services.Wrap(services.ErrTransient, StageExtract, "write", name, err)
		}
	}
	if err := file.Sync(); err != nil {
		return classify.Result{}, services.Wrap(services.ErrTransient, StageExtract, "sync output", name, err)
	}

	state := classifier.Snapshot()
	if err := store.MarkImage(ctx, runID, output, path, len(res.Messages), checkpoint.State{
		CurrentTimestamp: state.CurrentTimestamp,
		Seq:              state.Seq,
	}); err != nil {
		return classify.Result{}, services.Wrap(services.ErrTransient, StageExtract, "checkpoint", name,
			fmt.Errorf("messages for %s were written but not recorded: %w", name, err))
	}

	r.metrics.ImageProcessed(ctx)
	r.metrics.Emitted(ctx, len(res.Messages))
	if res.Blocks == 0 {
		r.metrics.ImageFailed(ctx, "no_text")
	}
	logger.Info("image processed",
		logging.String(logging.FieldEventType, "image_processed"),
		logging.Int("blocks", res.Blocks),
		logging.Int("messages", len(res.Messages)),
		logging.Int("seq", state.Seq),
	)
	return res, nil
}

type syncer interface {
	Sync() error
}
