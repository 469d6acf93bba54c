// Package textrecog provides optional text recognition over rasterized
// page regions, used to capture the text under a finalized highlight.
// The default engine recognizes nothing; a Tesseract-backed engine
// lives in the tesseract subpackage.
package textrecog

import (
	"context"
	"image"
)

// Input is one recognition request.
type Input struct {
	Image     image.Image
	Languages []string
	DPI       int
}

// Result is recognized text with a mean confidence in [0,1]. A zero
// Confidence with empty Text means the engine had nothing to say.
type Result struct {
	Text       string
	Confidence float64
}

// Engine recognizes text in an image region.
type Engine interface {
	Recognize(ctx context.Context, in Input) (Result, error)
}

type noopEngine struct{}

func (noopEngine) Recognize(context.Context, Input) (Result, error) { return Result{}, nil }

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the process-wide default engine.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine replaces the process-wide default engine.
func SetDefaultEngine(e Engine) {
	if e == nil {
		e = noopEngine{}
	}
	defaultEngine = e
}

// CropRegion clips img to the given pixel rectangle, clamped to the
// image bounds. Returns false if the intersection is empty.
func CropRegion(img image.Image, r image.Rectangle) (image.Image, bool) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, false
	}
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(clipped), true
	}
	out := image.NewRGBA(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
	for y := 0; y < clipped.Dy(); y++ {
		for x := 0; x < clipped.Dx(); x++ {
			out.Set(x, y, img.At(clipped.Min.X+x, clipped.Min.Y+y))
		}
	}
	return out, true
}
