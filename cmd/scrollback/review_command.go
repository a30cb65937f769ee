package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scrollback/internal/fileutil"
	"scrollback/internal/report"
	"scrollback/internal/transcript"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var outPath, htmlPath, title string

	cmd := &cobra.Command{
		Use:   "review [transcript]",
		Short: "Write a report of the messages flagged for review",
		Args:  cobra.MaximumNArgs(1),
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
			if outPath == "" {
				outPath = filepath.Join(cfg.Paths.OutputDir, "review.md")
			}
			if title == "" {
				title = "Review: " + strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			}

			msgs, _, err := transcript.ReadFile(input, logger)
			if err != nil {
				return err
			}
			rep := report.Build(title, msgs)

			var md bytes.Buffer
			if err := report.WriteMarkdown(&md, rep); err != nil {
				return err
			}
			if err := writeFileAtomic(outPath, md.Bytes()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fields := [][2]string{
				{"Messages", count(rep.Total)},
				{"Flagged", count(rep.Flagged)},
				{"Report", outPath},
			}

			if htmlPath != "" {
				var html bytes.Buffer
				if err := report.RenderHTML(&html, rep.Title, md.Bytes()); err != nil {
					return err
				}
				if err := writeFileAtomic(htmlPath, html.Bytes()); err != nil {
					return fmt.Errorf("write html report: %w", err)
				}
				fields = append(fields, [2]string{"HTML", htmlPath})
			}
			writeFields(cmd.OutOrStdout(), fields)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Markdown report path (default <output_dir>/review.md)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also render the report as HTML to this path")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	return cmd
}

func writeFileAtomic(path string, data []byte) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
