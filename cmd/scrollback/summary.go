package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"scrollback/internal/pipeline"
)

func count(n int) string {
	return humanize.Comma(int64(n))
}

func extractFields(s pipeline.ExtractSummary) [][2]string {
	fields := [][2]string{
		{"Images found", count(s.Total)},
		{"Images processed", count(s.Processed)},
		{"Images skipped (already done)", count(s.Skipped)},
		{"Images without text", count(s.Failed)},
		{"Messages emitted", count(s.Emitted)},
		{"Output", s.OutputPath},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	}
	if s.Cancelled {
		fields = append(fields, [2]string{"Interrupted", "yes (resume with the same command)"})
	}
	return fields
}

func dedupeFields(s pipeline.DedupeSummary) [][2]string {
	fields := [][2]string{
		{"Messages read", count(s.Stats.Input)},
		{"Messages kept", count(s.Kept)},
		{"Dropped (exact)", count(s.ExactDrops)},
		{"Dropped (near-duplicate)", count(s.NearDrops)},
		{"Output", s.OutputPath},
	}
	if s.Malformed > 0 {
		fields = append(fields, [2]string{"Malformed lines skipped", count(s.Malformed)})
	}
	return fields
}

func refineFields(s pipeline.RefineSummary) [][2]string {
	fields := [][2]string{
		{"Messages refined", count(s.Processed)},
		{"Messages scored", count(s.Scored)},
		{"Flagged for review", count(s.Flagged)},
		{"Filtered (below floor)", count(s.Filtered)},
		{"Messages kept", count(s.Kept)},
		{"Judge failures", count(s.JudgeFailures)},
		{"Output", s.OutputPath},
	}
	if s.Malformed > 0 {
		fields = append(fields, [2]string{"Malformed lines skipped", count(s.Malformed)})
	}
	return fields
}

func printSection(out io.Writer, title string, fields [][2]string) {
	fmt.Fprintln(out, title)
	writeFields(out, fields)
}

// printSummary reports every stage that ran, even when the run stopped early.
func printSummary(out io.Writer, s pipeline.Summary) {
	if s.Extract != nil {
		printSection(out, "Extract", extractFields(*s.Extract))
	}
	if s.Dedupe != nil {
		printSection(out, "Dedupe", dedupeFields(*s.Dedupe))
	}
	if s.Refine != nil {
		printSection(out, "Refine", refineFields(*s.Refine))
	}
}
