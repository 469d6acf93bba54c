package raster

import (
	"context"
	"fmt"
	"image"

	"github.com/docmark/docmark/registry"
)

// Fake is a deterministic in-memory rasterizer for tests and headless
// embedding. Pages render as solid fills sized from a fixed page size
// times the requested scale.
type Fake struct {
	// Size is the document-unit page size reported for every page.
	Size PageSize
	// FailPages aborts rendering of specific pages, keyed by
	// "documentID:pageNum".
	FailPages map[string]bool
	// Calls records every render request in order.
	Calls []string
}

// NewFake returns a fake rasterizer with US Letter pages.
func NewFake() *Fake {
	return &Fake{Size: PageSize{Width: 612, Height: 792}}
}

func (f *Fake) Render(ctx context.Context, doc *registry.Document, pageNum int, scale float64, rotation int) (PageImage, error) {
	if err := ctx.Err(); err != nil {
		return PageImage{}, err
	}
	key := fmt.Sprintf("%s:%d", doc.ID, pageNum)
	f.Calls = append(f.Calls, key)
	if f.FailPages[key] {
		return PageImage{}, fmt.Errorf("raster: page %s unrenderable", key)
	}
	w := int(f.Size.Width * scale)
	h := int(f.Size.Height * scale)
	if rotation == 90 || rotation == 270 {
		w, h = h, w
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	// Deterministic fill derived from the page number.
	shade := uint8(200 + pageNum%50)
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return PageImage{Image: img, WidthPx: w, HeightPx: h}, nil
}
