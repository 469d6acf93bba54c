package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/vector"

	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/docwriter"
)

// rasterOversample renders freehand strokes at 2x for smoother edges
// after placement.
const rasterOversample = 2

// RasterizeFreehand renders a freehand annotation's polyline to a PNG
// sized to its bounding box. Vector reconstruction in the output
// document is not required to be lossless; an embedded image is
// sufficient.
func RasterizeFreehand(o *annot.Object) ([]byte, error) {
	if o.Kind != annot.KindFreehand {
		return nil, fmt.Errorf("compositor: cannot rasterize %s", o.Kind)
	}
	if len(o.Points) < 2 {
		return nil, fmt.Errorf("compositor: freehand path has %d points", len(o.Points))
	}
	width := o.StrokeWidth
	if width <= 0 {
		width = 2
	}
	pad := width
	w := int(math.Ceil((o.W + 2*pad) * rasterOversample))
	h := int(math.Ceil((o.H + 2*pad) * rasterOversample))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	ras := vector.NewRasterizer(w, h)
	half := float32(width * rasterOversample / 2)
	toLocal := func(i int) (float32, float32) {
		return float32((o.Points[i].X - o.X + pad) * rasterOversample),
			float32((o.Points[i].Y - o.Y + pad) * rasterOversample)
	}
	// Stroke each segment as a filled quad perpendicular to its
	// direction; round joins come for free from overlapping quads at
	// the shared endpoints plus the end caps below.
	for i := 0; i < len(o.Points)-1; i++ {
		x1, y1 := toLocal(i)
		x2, y2 := toLocal(i + 1)
		dx, dy := x2-x1, y2-y1
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		ras.MoveTo(x1+nx, y1+ny)
		ras.LineTo(x2+nx, y2+ny)
		ras.LineTo(x2-nx, y2-ny)
		ras.LineTo(x1-nx, y1-ny)
		ras.ClosePath()
	}
	// Square caps over every point to close segment joints.
	for i := range o.Points {
		x, y := toLocal(i)
		ras.MoveTo(x-half, y-half)
		ras.LineTo(x+half, y-half)
		ras.LineTo(x+half, y+half)
		ras.LineTo(x-half, y+half)
		ras.ClosePath()
	}

	stroke := colorOrBlack(o.Color)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	src := image.NewUniform(color.NRGBA{
		R: uint8(stroke[0] * 255),
		G: uint8(stroke[1] * 255),
		B: uint8(stroke[2] * 255),
		A: 255,
	})
	ras.Draw(dst, dst.Bounds(), src, image.Point{})

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("compositor: encode freehand raster: %w", err)
	}
	return buf.Bytes(), nil
}

// freehandPlacement returns the document-space rectangle the rasterized
// stroke occupies, including the stroke-width padding added around the
// bounding box.
func freehandPlacement(o *annot.Object, scale float64, pageH float64) docwriter.Rect {
	width := o.StrokeWidth
	if width <= 0 {
		width = 2
	}
	pad := width
	return docwriter.Rect{
		X: (o.X - pad) / scale,
		Y: pageH - (o.Y+o.H+pad)/scale,
		W: (o.W + 2*pad) / scale,
		H: (o.H + 2*pad) / scale,
	}
}
