package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scrollback/internal/checkpoint"
	"scrollback/internal/config"
	"scrollback/internal/transcript"
)

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or reset extraction progress",
	}

	checkpointCmd.AddCommand(newCheckpointStatusCommand(ctx))
	checkpointCmd.AddCommand(newCheckpointResetCommand(ctx))

	return checkpointCmd
}

type checkpointStatus struct {
	Path             string           `json:"path"`
	Transcript       string           `json:"transcript"`
	Images           int              `json:"images"`
	Messages         int              `json:"messages"`
	NextID           string           `json:"next_id"`
	CarriedTimestamp string           `json:"carried_timestamp,omitempty"`
	LastImage        string           `json:"last_image,omitempty"`
	UpdatedAt        *time.Time       `json:"updated_at,omitempty"`
	Runs             []checkpoint.Run `json:"runs"`
}

func newCheckpointStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show processed images and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := transcriptPath(cfg, output)
			if err != nil {
				return err
			}
			store, err := checkpoint.Open(cfg.CheckpointPath())
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context(), target)
			if err != nil {
				return err
			}
			runs, err := store.Runs(cmd.Context(), target)
			if err != nil {
				return err
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}

			status := checkpointStatus{
				Path:             store.Path(),
				Transcript:       target,
				Images:           summary.Images,
				Messages:         summary.Messages,
				NextID:           transcript.FormatID(summary.State.Seq + 1),
				CarriedTimestamp: summary.State.CurrentTimestamp,
				LastImage:        summary.LastImage,
				Runs:             runs,
			}
			if summary.HasState {
				status.UpdatedAt = &summary.UpdatedAt
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fields := [][2]string{
				{"Checkpoint", status.Path},
				{"Transcript", status.Transcript},
				{"Images processed", count(status.Images)},
				{"Messages emitted", count(status.Messages)},
				{"Next message id", status.NextID},
			}
			if status.CarriedTimestamp != "" {
				fields = append(fields, [2]string{"Carried timestamp", status.CarriedTimestamp})
			}
			if status.LastImage != "" {
				fields = append(fields, [2]string{"Last image", status.LastImage})
			}
			if status.UpdatedAt != nil {
				fields = append(fields, [2]string{"Updated", humanize.Time(*status.UpdatedAt)})
			}
			writeFields(out, fields)

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					humanize.Time(run.StartedAt),
					string(run.Status),
					count(run.Images),
					count(run.Messages),
				})
			}
			writeRows(out, []string{"Run", "Started", "Status", "Images", "Messages"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 10, "Show at most N runs (0 = all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Transcript whose progress to show (default: the extract output)")
	return cmd
}

func newCheckpointResetCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	var output string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget processed images and the message sequence",
		Long: "Clear the checkpoint of one transcript so the next extract into it starts from\n" +
			"the first screenshot and msg_000001. Other transcripts keep their progress.\n" +
			"The transcript itself is left untouched; move it aside first\n" +
			"or the next extract appends duplicates to it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to reset without --yes")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := transcriptPath(cfg, output)
			if err != nil {
				return err
			}
			lock, err := checkpoint.AcquireLock(target)
			if err != nil {
				return fmt.Errorf("an extract appears to be running: %w", err)
			}
			defer func() { _ = lock.Release() }()

			store, err := checkpoint.Open(cfg.CheckpointPath())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Reset(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint cleared for %s (%s)\n", target, store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm the reset")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Transcript whose progress to clear (default: the extract output)")
	return cmd
}

// transcriptPath resolves the absolute transcript path checkpoint rows are
// keyed by, matching what extract records.
func transcriptPath(cfg *config.Config, output string) (string, error) {
	if output == "" {
		output = cfg.ExtractOutputPath()
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("resolve transcript path: %w", err)
	}
	return abs, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
