// Package raster defines the page-rasterizer collaborator contract.
// Rendering must be deterministic for identical inputs.
package raster

import (
	"context"
	"image"

	"github.com/docmark/docmark/registry"
)

// PageImage is a rendered page bitmap plus its pixel dimensions.
type PageImage struct {
	Image    image.Image
	WidthPx  int
	HeightPx int
}

// Rasterizer renders one page of a source document to a bitmap at a
// given scale and rotation.
type Rasterizer interface {
	Render(ctx context.Context, doc *registry.Document, pageNum int, scale float64, rotation int) (PageImage, error)
}

// PageSize reports a source page's size in document units. Compositors
// and rasterizer fakes share it.
type PageSize struct {
	Width, Height float64
}
