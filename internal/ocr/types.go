package ocr

import (
	"context"
	"math"
)

// Point is a pixel coordinate in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextBlock is one recognised span. Box holds the polygon corners in the
// order top-left, top-right, bottom-right, bottom-left.
type TextBlock struct {
	Box        [4]Point
	Text       string
	Confidence float64
	// Pass identifies the recognition pass that produced the block.
	Pass string
}

// CenterX is the horizontal midpoint of the top-left and bottom-right corners.
func (b TextBlock) CenterX() float64 {
	return (b.Box[0].X + b.Box[2].X) / 2
}

// CenterY is the vertical midpoint of the top-left and bottom-right corners.
func (b TextBlock) CenterY() float64 {
	return (b.Box[0].Y + b.Box[2].Y) / 2
}

// Bounds returns the axis-aligned rectangle enclosing all four corners as
// integer pixel coordinates.
func (b TextBlock) Bounds() (minX, minY, maxX, maxY int) {
	lx, ly := math.Inf(1), math.Inf(1)
	hx, hy := math.Inf(-1), math.Inf(-1)
	for _, p := range b.Box {
		lx = math.Min(lx, p.X)
		ly = math.Min(ly, p.Y)
		hx = math.Max(hx, p.X)
		hy = math.Max(hy, p.Y)
	}
	return int(math.Floor(lx)), int(math.Floor(ly)), int(math.Ceil(hx)), int(math.Ceil(hy))
}

// Detector recognises text in an image. Implementations are not required to
// be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, img *Image) ([]TextBlock, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, img *Image) ([]TextBlock, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img *Image) ([]TextBlock, error) {
	return f(ctx, img)
}
