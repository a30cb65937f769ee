// Package dedupe removes re-captured messages from the multi-screenshot
// stream and puts the survivors into a stable global order.
package dedupe

import (
	"sort"
	"strings"

	"scrollback/internal/textutil"
	"scrollback/internal/transcript"
)

// Metric names a similarity function over code points.
type Metric string

const (
	MetricJaccard     Metric = "jaccard"
	MetricLevenshtein Metric = "levenshtein"
)

// Options configures duplicate detection.
type Options struct {
	// Threshold is the similarity strictly above which two texts of the same
	// speaker count as the same bubble.
	Threshold float64
	// MinLength is the rune count both texts must exceed before similarity is
	// consulted. Shorter texts only match by substring.
	MinLength int
	Metric    Metric
	// Sort orders the output by (timestamp, source_file, id). When false the
	// input order is kept.
	Sort bool
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{Threshold: 0.9, MinLength: 10, Metric: MetricJaccard, Sort: true}
}

// Stats summarises one pass.
type Stats struct {
	Input      int
	Kept       int
	Dropped    int
	ExactDrops int
	NearDrops  int
}

type key struct {
	timestamp string
	speaker   transcript.Speaker
	text      string
}

// Deduplicator is stateless between calls to Run.
type Deduplicator struct {
	opts       Options
	similarity func(a, b string) float64
}

// New builds a Deduplicator. An unknown metric falls back to Jaccard.
func New(opts Options) *Deduplicator {
	sim := textutil.Jaccard
	if opts.Metric == MetricLevenshtein {
		sim = textutil.LevenshteinRatio
	}
	return &Deduplicator{opts: opts, similarity: sim}
}

// Run filters msgs in input order, optionally sorts the survivors, then
// renumbers them msg_000001..msg_N. The input slice is not modified.
func (d *Deduplicator) Run(msgs []transcript.Message) ([]transcript.Message, Stats) {
	stats := Stats{Input: len(msgs)}
	seen := make(map[key]struct{}, len(msgs))
	bySpeaker := make(map[transcript.Speaker][]string)
	kept := make([]transcript.Message, 0, len(msgs))

	for _, msg := range msgs {
		k := key{timestamp: msg.Timestamp, speaker: msg.Speaker, text: msg.Text}
		if _, ok := seen[k]; ok {
			stats.ExactDrops++
			continue
		}
		exactOnly := msg.Type == transcript.TypeSystem || msg.Type == transcript.TypeImage
		if !exactOnly && d.nearDuplicate(msg.Text, bySpeaker[msg.Speaker]) {
			stats.NearDrops++
			continue
		}
		seen[k] = struct{}{}
		bySpeaker[msg.Speaker] = append(bySpeaker[msg.Speaker], msg.Text)
		kept = append(kept, msg)
	}

	if d.opts.Sort {
		sort.SliceStable(kept, func(i, j int) bool {
			a, b := kept[i], kept[j]
			if a.Timestamp != b.Timestamp {
				return a.Timestamp < b.Timestamp
			}
			if a.SourceFile != b.SourceFile {
				return a.SourceFile < b.SourceFile
			}
			return a.ID < b.ID
		})
	}
	for i := range kept {
		kept[i].ID = transcript.FormatID(i + 1)
	}

	stats.Kept = len(kept)
	stats.Dropped = stats.ExactDrops + stats.NearDrops
	return kept, stats
}

func (d *Deduplicator) nearDuplicate(text string, previous []string) bool {
	n := textutil.RuneLen(text)
	for _, prev := range previous {
		if isSubstring(text, prev) {
			return true
		}
		if n > d.opts.MinLength && textutil.RuneLen(prev) > d.opts.MinLength &&
			d.similarity(text, prev) > d.opts.Threshold {
			return true
		}
	}
	return false
}

// isSubstring reports containment in either direction. An empty text is
// contained in every text.
func isSubstring(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
