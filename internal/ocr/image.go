package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

// Image is an encoded screenshot plus its decoded dimensions.
type Image struct {
	Path   string
	Name   string
	Width  int
	Height int
	Format string
	Data   []byte
}

// LoadImage reads path and decodes only the image header.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeImage(filepath.Base(path), data, path)
}

// DecodeImage wraps already-read bytes, reading dimensions from the header.
func DecodeImage(name string, data []byte, path string) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode %s: empty image", name)
	}
	return &Image{
		Path:   path,
		Name:   name,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Data:   data,
	}, nil
}

// Region returns the bounds of block expanded by margin pixels on each side,
// clamped to the image.
func (img *Image) Region(block TextBlock, margin int) image.Rectangle {
	minX, minY, maxX, maxY := block.Bounds()
	rect := image.Rect(minX-margin, minY-margin, maxX+margin, maxY+margin)
	return rect.Intersect(image.Rect(0, 0, img.Width, img.Height))
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop decodes img and returns rect as a PNG-encoded Image. The crop keeps
// the parent's name so log lines still point at the screenshot.
func Crop(img *Image, rect image.Rectangle) (*Image, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("crop %s: empty region %v", img.Name, rect)
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("crop %s: %w", img.Name, err)
	}
	rect = rect.Intersect(decoded.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop %s: region outside image", img.Name)
	}

	var sub image.Image
	if s, ok := decoded.(subImager); ok {
		sub = s.SubImage(rect)
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(rgba, rgba.Bounds(), decoded, rect.Min, draw.Src)
		sub = rgba
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub); err != nil {
		return nil, fmt.Errorf("crop %s: encode: %w", img.Name, err)
	}
	return &Image{
		Path:   img.Path,
		Name:   img.Name,
		Width:  rect.Dx(),
		Height: rect.Dy(),
		Format: "png",
		Data:   buf.Bytes(),
	}, nil
}
