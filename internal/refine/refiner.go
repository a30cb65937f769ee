package refine

import (
	"context"
	"errors"
	"log/slog"

	"scrollback/internal/judge"
	"scrollback/internal/logging"
	"scrollback/internal/transcript"
)

// Options configures a Refiner.
type Options struct {
	// ReviewThreshold flags messages whose fused score falls below it.
	ReviewThreshold float64
	Corrections     []Correction
	// Judge is consulted for Japanese messages when non-nil.
	Judge judge.Judge
}

// DefaultReviewThreshold is the score under which a message needs review.
const DefaultReviewThreshold = 0.6

// Stats summarises a refine pass.
type Stats struct {
	Processed     int
	Scored        int
	Flagged       int
	Filtered      int
	JudgeFailures int
}

// Refiner normalises and scores messages. Not safe for concurrent use.
type Refiner struct {
	opts       Options
	normalizer *Normalizer
	logger     *slog.Logger
	stats      Stats
}

// New builds a Refiner.
func New(opts Options, logger *slog.Logger) *Refiner {
	return &Refiner{
		opts:       opts,
		normalizer: NewNormalizer(opts.Corrections),
		logger:     logging.NewComponentLogger(logger, "refine"),
	}
}

// Stats returns the counters accumulated so far.
func (r *Refiner) Stats() Stats {
	return r.stats
}

// Refine normalises msg in place and annotates it with a score unless it is a
// timestamp-like system line. Judge failures fall back to the rule score.
func (r *Refiner) Refine(ctx context.Context, msg *transcript.Message) {
	r.stats.Processed++
	msg.Text = r.normalizer.Normalize(msg.Text)
	msg.Naturalness = nil
	msg.NeedsReview = false

	if msg.IsSystem() && IsTimestampLike(msg.Text) {
		return
	}

	rule := RuleScore(msg.Text, msg.Lang)
	external := judge.NoScore
	if r.opts.Judge != nil && msg.Lang == transcript.LangJA {
		external = r.consult(ctx, msg)
	}

	final := Fuse(rule, external)
	rounded := round2(final)
	msg.Naturalness = &rounded
	r.stats.Scored++
	if final < r.opts.ReviewThreshold {
		msg.NeedsReview = true
		r.stats.Flagged++
	}
}

func (r *Refiner) consult(ctx context.Context, msg *transcript.Message) float64 {
	score, err := r.opts.Judge.Score(ctx, msg.Text, msg.Lang)
	if err == nil && (score < 0 || score > 1) {
		err = errors.New("score outside [0,1]")
	}
	if err != nil {
		r.stats.JudgeFailures++
		if ctx.Err() == nil {
			logging.Warn(logging.WithContext(ctx, r.logger), "judge unavailable; using rule score", "judge_failed",
				"check the judge provider configuration and that the model is reachable",
				logging.String(logging.FieldMessageID, msg.ID),
				logging.Error(err),
			)
		}
		return judge.NoScore
	}
	return score
}

// RefineAll refines msgs in place and drops those scoring under
// minNaturalness. Unscored messages count as 1.0.
func (r *Refiner) RefineAll(ctx context.Context, msgs []transcript.Message, minNaturalness float64) []transcript.Message {
	for i := range msgs {
		r.Refine(ctx, &msgs[i])
	}
	kept, filtered := Filter(msgs, minNaturalness)
	r.stats.Filtered += filtered
	return kept
}

// Filter keeps messages whose score is at least minNaturalness.
func Filter(msgs []transcript.Message, minNaturalness float64) ([]transcript.Message, int) {
	kept := make([]transcript.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Score() < minNaturalness {
			continue
		}
		kept = append(kept, msg)
	}
	return kept, len(msgs) - len(kept)
}
