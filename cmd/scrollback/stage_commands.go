package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scrollback/internal/config"
	"scrollback/internal/pipeline"
	"scrollback/internal/preflight"
	"scrollback/internal/services"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.ExtractOptions
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Classify screenshots and append their messages to the transcript",
		Long: "Classify every screenshot in paths.input_dir that has not been processed yet and\n" +
			"append the messages to the transcript. Progress is checkpointed per image, so an\n" +
			"interrupted run resumes where it stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if opts.InputDir != "" {
				if cfg.Paths.InputDir, err = config.ExpandPath(opts.InputDir); err != nil {
					return err
				}
			}
			if opts.Count < 0 {
				return fmt.Errorf("--count must be >= 0, got %d", opts.Count)
			}
			if !skipPreflight {
				if err := requirePreflight(cmd.Context(), cfg); err != nil {
					return err
				}
			}
			sess, err := ctx.newSession(cfg, false)
			if err != nil {
				return err
			}
			defer sess.close()

			summary, err := sess.runner.Extract(cmd.Context(), pipeline.ExtractOptions{
				Output: opts.Output,
				Count:  opts.Count,
			})
			printSection(cmd.OutOrStdout(), "Extract", extractFields(summary))
			if err != nil {
				return err
			}
			if summary.Cancelled {
				return context.Canceled
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.InputDir, "input-dir", "", "Screenshot directory (default paths.input_dir)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Transcript to append to (default <output_dir>/conversations.jsonl)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "Process at most N new screenshots (0 = all)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not check the OCR service before starting")
	return cmd
}

type dedupeFlags struct {
	threshold float64
	minLength int
	metric    string
	noSort    bool
}

func (f *dedupeFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "Near-duplicate similarity threshold in [0,1] (default dedupe.similarity_threshold)")
	cmd.Flags().IntVar(&f.minLength, "min-length", 0, "Minimum length before similarity is consulted (default dedupe.min_similarity_length)")
	cmd.Flags().StringVar(&f.metric, "metric", "", "Similarity metric: jaccard or levenshtein (default dedupe.metric)")
	cmd.Flags().BoolVar(&f.noSort, "no-sort", false, "Keep input order instead of sorting by timestamp")
}

func (f *dedupeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("threshold") {
		cfg.Dedupe.SimilarityThreshold = f.threshold
	}
	if cmd.Flags().Changed("min-length") {
		cfg.Dedupe.MinSimilarityLength = f.minLength
	}
	if cmd.Flags().Changed("metric") {
		cfg.Dedupe.Metric = strings.ToLower(strings.TrimSpace(f.metric))
	}
	if f.noSort {
		cfg.Dedupe.Sort = false
	}
}

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var input, output string
	var flags dedupeFlags

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove messages re-captured by overlapping screenshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			sess, err := ctx.newSession(cfg, false)
			if err != nil {
				return err
			}
			defer sess.close()

			summary, err := sess.runner.Dedupe(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			printSection(cmd.OutOrStdout(), "Dedupe", dedupeFields(summary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript to read (default <output_dir>/conversations.jsonl)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Transcript to write (default <output_dir>/deduped.jsonl)")
	flags.register(cmd)
	return cmd
}

type refineFlags struct {
	minNaturalness float64
	judge          bool
	noJudge        bool
}

func (f *refineFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.minNaturalness, "min-naturalness", 0, "Drop messages scoring below this (default refine.min_naturalness)")
	cmd.Flags().BoolVar(&f.judge, "judge", false, "Consult the external judge even if judge.enabled is false")
	cmd.Flags().BoolVar(&f.noJudge, "no-judge", false, "Score with rules only")
	cmd.MarkFlagsMutuallyExclusive("judge", "no-judge")
}

func (f *refineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("min-naturalness") {
		cfg.Refine.MinNaturalness = f.minNaturalness
	}
	if f.judge {
		cfg.Judge.Enabled = true
	}
	if f.noJudge {
		cfg.Judge.Enabled = false
	}
}

func newRefineCommand(ctx *commandContext) *cobra.Command {
	var input, output string
	var flags refineFlags

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Normalise text and score naturalness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			sess, err := ctx.newSession(cfg, true)
			if err != nil {
				return err
			}
			defer sess.close()

			summary, err := sess.runner.Refine(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			printSection(cmd.OutOrStdout(), "Refine", refineFields(summary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript to read (default <output_dir>/deduped.jsonl)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Transcript to write (default <output_dir>/refined.jsonl)")
	flags.register(cmd)
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var countFlag int
	var skipPreflight bool
	var dFlags dedupeFlags
	var rFlags refineFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, dedupe and refine in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if countFlag < 0 {
				return fmt.Errorf("--count must be >= 0, got %d", countFlag)
			}
			dFlags.apply(cmd, cfg)
			rFlags.apply(cmd, cfg)
			if !skipPreflight {
				if err := requirePreflight(cmd.Context(), cfg); err != nil {
					return err
				}
			}
			sess, err := ctx.newSession(cfg, true)
			if err != nil {
				return err
			}
			defer sess.close()

			summary, err := sess.runner.Run(cmd.Context(), pipeline.ExtractOptions{Count: countFlag})
			printSummary(cmd.OutOrStdout(), summary)
			if err != nil {
				return err
			}
			if summary.Extract != nil && summary.Extract.Cancelled {
				return context.Canceled
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&countFlag, "count", "n", 0, "Process at most N new screenshots (0 = all)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not check the OCR service before starting")
	dFlags.register(cmd)
	rFlags.register(cmd)
	return cmd
}

// requirePreflight fails fast when extraction cannot succeed.
func requirePreflight(ctx context.Context, cfg *config.Config) error {
	failed := preflight.Failed(preflight.ForExtract(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, r := range failed {
		details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(details, "; "),
		errors.New("fix the failing checks or pass --skip-preflight"))
}
