package main

import (
	"bytes"
	"testing"

	"scrollback/internal/dedupe"
	"scrollback/internal/pipeline"
	"scrollback/internal/refine"
)

func TestPrintSummaryShowsCountsAndPaths(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, pipeline.Summary{
		Extract: &pipeline.ExtractSummary{Total: 3, Processed: 2, Skipped: 1, Emitted: 5, OutputPath: "/data/conversations.jsonl"},
		Dedupe: &pipeline.DedupeSummary{
			InputPath:  "/data/conversations.jsonl",
			OutputPath: "/data/deduped.jsonl",
			Stats:      dedupe.Stats{Input: 5, Kept: 4, Dropped: 1, NearDrops: 1},
			Malformed:  2,
		},
		Refine: &pipeline.RefineSummary{
			InputPath:  "/data/deduped.jsonl",
			OutputPath: "/data/refined.jsonl",
			Stats:      refine.Stats{Processed: 4, Scored: 4, Flagged: 1},
			Kept:       4,
		},
	})

	got := out.String()
	requireContains(t, got, "Messages emitted: 5")
	requireContains(t, got, "Output: /data/conversations.jsonl")
	requireContains(t, got, "Messages read: 5")
	requireContains(t, got, "Dropped (near-duplicate): 1")
	requireContains(t, got, "Output: /data/deduped.jsonl")
	requireContains(t, got, "Malformed lines skipped: 2")
	requireContains(t, got, "Flagged for review: 1")
	requireContains(t, got, "Output: /data/refined.jsonl")
}
