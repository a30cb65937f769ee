package classify

import (
	"context"
	"math"

	"scrollback/internal/ocr"
	"scrollback/internal/textutil"
	"scrollback/internal/transcript"
)

// block is the per-block working state threaded through the rule list.
type block struct {
	ctx   context.Context
	img   *ocr.Image
	raw   ocr.TextBlock
	text  string
	conf  float64
	width float64
	// offset is the distance of the block's horizontal centre from the image
	// centre as a fraction of image width.
	offset float64
}

func newBlock(ctx context.Context, img *ocr.Image, raw ocr.TextBlock) *block {
	width := float64(img.Width)
	return &block{
		ctx:    ctx,
		img:    img,
		raw:    raw,
		text:   raw.Text,
		conf:   raw.Confidence,
		width:  width,
		offset: math.Abs(raw.CenterX()-width/2) / width,
	}
}

func (b *block) within(band float64) bool {
	return b.offset < band
}

// outcome is what a rule decided for a block. A nil message means the block
// was consumed without emitting anything.
type outcome struct {
	message *transcript.Message
}

type rule struct {
	name  string
	match func(c *Classifier, b *block) bool
	apply func(c *Classifier, b *block) outcome
}

// defaultRules is evaluated first-match-wins; the order is the precedence.
var defaultRules = []rule{
	{
		name: "timestamp",
		match: func(c *Classifier, b *block) bool {
			return b.within(c.opts.TimestampBand) && IsTimestampText(b.text)
		},
		apply: func(c *Classifier, b *block) outcome {
			c.state.CurrentTimestamp = ParseTimestamp(b.text)
			return outcome{}
		},
	},
	{
		name: "system",
		match: func(c *Classifier, b *block) bool {
			return b.within(c.opts.SystemBand) && IsSystemNotice(b.text)
		},
		apply: func(c *Classifier, b *block) outcome {
			return c.emit(b, transcript.SpeakerSystem, transcript.LangJA, transcript.TypeSystem, b.conf)
		},
	},
	{
		name: "centered",
		match: func(c *Classifier, b *block) bool {
			return b.within(c.opts.CenterBand)
		},
		apply: func(c *Classifier, b *block) outcome {
			return c.emit(b, transcript.SpeakerSystem, transcript.LangJA, transcript.TypeSystem, b.conf*c.opts.CenterConfidenceFactor)
		},
	},
	{
		name:  "side",
		match: func(*Classifier, *block) bool { return true },
		apply: func(c *Classifier, b *block) outcome {
			if b.raw.CenterX() > b.width/2 {
				c.rerecognize(b)
				return c.emit(b, transcript.SpeakerUserA, transcript.LangJA, transcript.TypeText, b.conf)
			}
			lang := transcript.LangZH
			if textutil.ContainsKana(b.text) {
				lang = transcript.LangJA
			}
			return c.emit(b, transcript.SpeakerUserB, lang, transcript.TypeText, b.conf)
		},
	},
}
