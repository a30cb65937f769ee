package classify

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"scrollback/internal/logging"
	"scrollback/internal/ocr"
	"scrollback/internal/transcript"
)

// Options holds the horizontal bands and the region margin. Bands are
// fractions of the image width measured from its centre.
type Options struct {
	TimestampBand          float64
	SystemBand             float64
	CenterBand             float64
	CenterConfidenceFactor float64
	RegionMargin           int
}

// DefaultOptions returns the bands tuned for WeChat screenshots.
func DefaultOptions() Options {
	return Options{
		TimestampBand:          0.20,
		SystemBand:             0.25,
		CenterBand:             0.15,
		CenterConfidenceFactor: 0.8,
		RegionMargin:           10,
	}
}

// State is the classification state carried across images.
type State struct {
	CurrentTimestamp string
	// Seq is the number of messages emitted so far; the next id is Seq+1.
	Seq int
}

// Classifier assigns speaker, language and type to detected text blocks.
type Classifier struct {
	primary   ocr.Detector
	secondary ocr.Detector
	opts      Options
	logger    *slog.Logger
	rules     []rule
	state     State
}

// New builds a Classifier. secondary may be nil, in which case right-hand
// bubbles keep their first-pass text.
func New(primary, secondary ocr.Detector, opts Options, logger *slog.Logger) *Classifier {
	return &Classifier{
		primary:   primary,
		secondary: secondary,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "classify"),
		rules:     defaultRules,
	}
}

// Restore seeds the carried state, typically from a checkpoint.
func (c *Classifier) Restore(state State) {
	c.state = state
}

// Snapshot returns the current carried state.
func (c *Classifier) Snapshot() State {
	return c.state
}

// Result is the outcome of classifying one screenshot.
type Result struct {
	Messages []transcript.Message
	// Blocks is the number of text blocks detection returned. Zero means
	// detection failed or found nothing; a screenshot holding only a
	// timestamp banner has blocks but no messages.
	Blocks int
}

// Classify detects and classifies the blocks in img. Detection failures and
// empty results yield no messages. The only error returned is the context's,
// and on that error the carried state is left as it was before the call.
func (c *Classifier) Classify(ctx context.Context, img *ocr.Image) ([]transcript.Message, error) {
	res, err := c.Analyze(ctx, img)
	return res.Messages, err
}

// Analyze is Classify that also reports how many blocks were detected.
func (c *Classifier) Analyze(ctx context.Context, img *ocr.Image) (Result, error) {
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldImage, img.Name))
	before := c.state

	blocks, err := c.primary.Detect(ctx, img)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logging.Warn(logger, "text detection failed", "detect_failed",
			"check that the OCR service is running and the image is readable",
			logging.Error(err),
		)
		return Result{}, nil
	}
	if len(blocks) == 0 {
		logging.Warn(logger, "no text detected", "detect_empty", "the screenshot may be blank or cropped")
		return Result{}, nil
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].CenterY() < blocks[j].CenterY()
	})

	var out []transcript.Message
	for _, raw := range blocks {
		if err := ctx.Err(); err != nil {
			c.state = before
			return Result{}, err
		}
		b := newBlock(ctx, img, raw)
		for _, r := range c.rules {
			if !r.match(c, b) {
				continue
			}
			res := r.apply(c, b)
			if res.message != nil {
				out = append(out, *res.message)
			}
			logger.Debug("block classified",
				logging.String("rule", r.name),
				logging.String("text", b.text),
				logging.Float64("offset", b.offset),
			)
			break
		}
	}
	if err := ctx.Err(); err != nil {
		c.state = before
		return Result{}, err
	}
	logger.Debug("image classified",
		logging.Int("blocks", len(blocks)),
		logging.Int("messages", len(out)),
	)
	return Result{Messages: out, Blocks: len(blocks)}, nil
}

func (c *Classifier) emit(b *block, speaker transcript.Speaker, lang transcript.Lang, typ transcript.Type, conf float64) outcome {
	c.state.Seq++
	return outcome{message: &transcript.Message{
		ID:         transcript.FormatID(c.state.Seq),
		Timestamp:  c.state.CurrentTimestamp,
		Speaker:    speaker,
		Lang:       lang,
		Type:       typ,
		Text:       b.text,
		SourceFile: b.img.Name,
		Confidence: conf,
	}}
}

// rerecognize replaces the block text with a region-scoped secondary pass.
// Any failure keeps the first-pass text and confidence.
func (c *Classifier) rerecognize(b *block) {
	if c.secondary == nil {
		return
	}
	logger := logging.WithContext(b.ctx, c.logger)
	region := b.img.Region(b.raw, c.opts.RegionMargin)
	crop, err := ocr.Crop(b.img, region)
	if err != nil {
		logging.Warn(logger, "region crop failed", "crop_failed", "keeping first-pass text",
			logging.String(logging.FieldImage, b.img.Name), logging.Error(err))
		return
	}
	results, err := c.secondary.Detect(b.ctx, crop)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Warn(logger, "region re-recognition failed", "rerecognize_failed", "keeping first-pass text",
				logging.String(logging.FieldImage, b.img.Name), logging.Error(err))
		}
		return
	}
	if len(results) == 0 {
		return
	}
	var (
		sb  strings.Builder
		sum float64
	)
	for _, r := range results {
		sb.WriteString(r.Text)
		sum += r.Confidence
	}
	b.text = sb.String()
	b.conf = sum / float64(len(results))
}
