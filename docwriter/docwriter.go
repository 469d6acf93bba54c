// Package docwriter defines the destination-document writer contract
// consumed by the export compositor. The writer owns the output
// format; the compositor only issues drawing and field-creation
// commands in document-space coordinates (origin bottom-left).
package docwriter

import "time"

// Color holds normalized 0-1 RGB channels.
type Color [3]float64

// Rect is a document-space rectangle, origin bottom-left.
type Rect struct {
	X, Y, W, H float64
}

// TextStyle configures one drawn text run.
type TextStyle struct {
	Font  string // resource name resolved by the writer
	Size  float64
	Color Color
}

// ShapeStyle configures geometric primitives. Nil Stroke or Fill
// disables that paint.
type ShapeStyle struct {
	Stroke *Color
	Fill   *Color
	Width  float64
}

// TextFieldOpts configures a synthesized interactive text field.
type TextFieldOpts struct {
	Value     string
	FontSize  float64
	Multiline bool
}

// Info is the output document metadata.
type Info struct {
	Producer string
	Creator  string
	Modified time.Time
}

// Source is an opened existing document registered as a supply of
// copyable pages.
type Source interface {
	PageCount() int
}

// Page is one output page accepting drawing commands.
type Page interface {
	// Size returns the page size in document units.
	Size() (w, h float64)

	DrawText(line string, x, y float64, style TextStyle) error
	DrawRect(r Rect, style ShapeStyle) error
	DrawEllipse(r Rect, style ShapeStyle) error
	DrawLine(x1, y1, x2, y2 float64, style ShapeStyle) error
	DrawImage(data []byte, mime string, r Rect) error

	// Field synthesis. A writer may reject a field (for example on a
	// name collision); callers degrade to a static drawing.
	CreateTextField(name string, r Rect, opts TextFieldOpts) error
	CreateCheckbox(name string, r Rect, checked bool) error
	CreateRadio(name string, r Rect, checked bool, onState string) error
	CreateChoice(name string, r Rect, options []string, value string) error
}

// Writer builds one output document.
type Writer interface {
	// OpenExisting registers a source document's bytes as a supply of
	// copyable pages. Each distinct source is opened once per export.
	OpenExisting(data []byte) (Source, error)

	// CopyPage copies one source page (0-based) into the output,
	// preserving the given rotation, and returns the new page.
	CopyPage(src Source, pageIndex int, rotation int) (Page, error)

	// Attach embeds a named side-channel file in the output.
	Attach(data []byte, name, mime string) error

	// SetInfo finalizes document metadata.
	SetInfo(info Info) error

	// Save serializes the output document.
	Save() ([]byte, error)
}
