package testsupport

import (
	"context"
	"sync"

	"scrollback/internal/ocr"
)

// Detector is a scripted ocr.Detector keyed by image name. Images without a
// script yield no blocks.
type Detector struct {
	mu     sync.Mutex
	blocks map[string][]ocr.TextBlock
	errs   map[string]error
	calls  []string
	// OnDetect, when set, runs before each detection.
	OnDetect func(name string)
}

// NewDetector returns an empty scripted detector.
func NewDetector() *Detector {
	return &Detector{blocks: map[string][]ocr.TextBlock{}, errs: map[string]error{}}
}

// Script sets the blocks returned for image name.
func (d *Detector) Script(name string, blocks ...ocr.TextBlock) *Detector {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocks[name] = blocks
	return d
}

// Fail makes detection of image name return err.
func (d *Detector) Fail(name string, err error) *Detector {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[name] = err
	return d
}

// Detect implements ocr.Detector.
func (d *Detector) Detect(_ context.Context, img *ocr.Image) ([]ocr.TextBlock, error) {
	if d.OnDetect != nil {
		d.OnDetect(img.Name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, img.Name)
	if err := d.errs[img.Name]; err != nil {
		return nil, err
	}
	out := make([]ocr.TextBlock, len(d.blocks[img.Name]))
	copy(out, d.blocks[img.Name])
	return out, nil
}

// Calls returns the image names detected so far, in order.
func (d *Detector) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Block builds a 20x10 block centred on (x, y).
func Block(x, y float64, text string, conf float64) ocr.TextBlock {
	return ocr.TextBlock{
		Box: [4]ocr.Point{
			{X: x - 10, Y: y - 5}, {X: x + 10, Y: y - 5},
			{X: x + 10, Y: y + 5}, {X: x - 10, Y: y + 5},
		},
		Text:       text,
		Confidence: conf,
	}
}
