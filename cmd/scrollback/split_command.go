package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"scrollback/internal/transcript"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "split [transcript]",
		Short: "Write one JSONL file per conversation date",
		Long: "Partition a transcript by the date of each message's timestamp into\n" +
			"<dir>/<YYYY-MM-DD>.jsonl. Messages without a parseable timestamp go to\n" +
			"no_timestamp.jsonl.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			input := cfg.RefineOutputPath()
			if len(args) == 1 {
				input = args[0]
			}
			target := dir
			if target == "" {
				target = filepath.Join(cfg.Paths.OutputDir, "by_date")
			}

			msgs, _, err := transcript.ReadFile(input, logger)
			if err != nil {
				return err
			}
			buckets := transcript.SplitByDate(msgs)
			if err := transcript.WriteBuckets(target, buckets); err != nil {
				return err
			}

			rows := make([][]string, 0, len(buckets))
			for _, b := range buckets {
				rows = append(rows, []string{b.Date + ".jsonl", count(len(b.Messages))})
			}
			out := cmd.OutOrStdout()
			writeRows(out, []string{"File", "Messages"}, rows, []columnAlignment{alignLeft, alignRight})
			writeFields(out, [][2]string{{"Directory", target}, {"Files", count(len(buckets))}})
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default <output_dir>/by_date)")
	return cmd
}
