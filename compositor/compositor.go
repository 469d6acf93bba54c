// Package compositor walks the view-page sequence and compiles the
// in-memory overlay model into the destination document: it copies
// source pages, projects every annotation from canvas space into
// document space, dispatches per annotation kind, and accumulates the
// signature audit trail.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/audit"
	"github.com/docmark/docmark/coords"
	"github.com/docmark/docmark/docwriter"
	"github.com/docmark/docmark/observability"
	"github.com/docmark/docmark/registry"
	"github.com/docmark/docmark/richtext"
	"github.com/docmark/docmark/sequence"
)

var (
	ErrNoPages  = errors.New("compositor: empty page sequence")
	ErrBadScale = errors.New("compositor: display scale must be positive")
)

// Input is one export request. Annotation snapshots are keyed by view
// page id and their geometry must already be consistent with Scale;
// the zoom re-render step guarantees that before export runs.
type Input struct {
	Registry    *registry.Registry
	Pages       []sequence.ViewPage
	Annotations map[string]*annot.Snapshot
	Scale       float64
}

// Compositor builds output documents. The zero value is not usable;
// call New.
type Compositor struct {
	log      observability.Logger
	tracer   observability.Tracer
	producer string
	creator  string
	now      func() time.Time
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(c *Compositor) { c.log = l }
}

// WithTracer sets the tracer.
func WithTracer(t observability.Tracer) Option {
	return func(c *Compositor) { c.tracer = t }
}

// WithProducer sets the producer and creator metadata strings.
func WithProducer(producer, creator string) Option {
	return func(c *Compositor) {
		c.producer = producer
		c.creator = creator
	}
}

// WithClock overrides the time source used for metadata and audit
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Compositor) { c.now = now }
}

func New(opts ...Option) *Compositor {
	c := &Compositor{
		log:      observability.NopLogger{},
		tracer:   observability.NopTracer(),
		producer: "docmark",
		creator:  "docmark",
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Export compiles the input into one output document. Recoverable
// per-annotation failures are isolated and logged; failing to open or
// copy a source page aborts the whole export.
func (c *Compositor) Export(ctx context.Context, w docwriter.Writer, in Input) ([]byte, []audit.Entry, error) {
	ctx, span := c.tracer.StartSpan(ctx, "compositor.export")
	defer span.Finish()

	if len(in.Pages) == 0 {
		return nil, nil, ErrNoPages
	}
	if in.Scale <= 0 {
		return nil, nil, ErrBadScale
	}

	// Open each referenced source document exactly once.
	sources := make(map[string]docwriter.Source)
	for _, vp := range in.Pages {
		if _, ok := sources[vp.DocumentID]; ok {
			continue
		}
		doc, err := in.Registry.Get(vp.DocumentID)
		if err != nil {
			span.SetError(err)
			return nil, nil, fmt.Errorf("compositor: resolve source: %w", err)
		}
		src, err := w.OpenExisting(doc.Data)
		if err != nil {
			span.SetError(err)
			return nil, nil, fmt.Errorf("compositor: open source %q: %w", doc.DisplayName, err)
		}
		sources[vp.DocumentID] = src
	}

	var trail audit.Trail
	for i, vp := range in.Pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		page, err := w.CopyPage(sources[vp.DocumentID], vp.SourcePage-1, vp.Rotation)
		if err != nil {
			span.SetError(err)
			return nil, nil, fmt.Errorf("compositor: copy page %s: %w", vp.ID, err)
		}
		snap := in.Annotations[vp.ID]
		if snap == nil {
			continue
		}
		doc, _ := in.Registry.Get(vp.DocumentID)
		for _, obj := range snap.Objects {
			if err := c.place(page, obj, in.Scale, i+1, doc, &trail); err != nil {
				c.log.Warn("annotation skipped",
					observability.String("page", vp.ID),
					observability.String("kind", string(obj.Kind)),
					observability.Error("err", err))
			}
		}
	}

	if trail.Len() > 0 {
		data, err := trail.Marshal()
		if err != nil {
			return nil, nil, fmt.Errorf("compositor: marshal audit trail: %w", err)
		}
		if err := w.Attach(data, audit.AttachmentName, audit.AttachmentMIME); err != nil {
			return nil, nil, fmt.Errorf("compositor: attach audit trail: %w", err)
		}
	}

	if err := w.SetInfo(docwriter.Info{
		Producer: c.producer,
		Creator:  c.creator,
		Modified: c.now(),
	}); err != nil {
		return nil, nil, fmt.Errorf("compositor: finalize metadata: %w", err)
	}

	out, err := w.Save()
	if err != nil {
		span.SetError(err)
		return nil, nil, fmt.Errorf("compositor: save: %w", err)
	}
	span.SetTag("pages", len(in.Pages))
	span.SetTag("signatures", trail.Len())
	c.log.Info("export complete",
		observability.Int(observability.MetricExportPages, len(in.Pages)),
		observability.Int("signatures", trail.Len()))
	return out, trail.Entries(), nil
}

// projection returns the canvas→document transform: divide by the
// display scale and flip the vertical axis onto a bottom-left origin.
func projection(scale, pageH float64) coords.Matrix {
	return coords.Scale(1/scale, -1/scale).Multiply(coords.Translate(0, pageH))
}

// projectRect maps a canvas-space bounding box into document space.
// The box's bottom-left canvas corner becomes the document origin
// corner because the axis flips.
func projectRect(o *annot.Object, scale, pageH float64) docwriter.Rect {
	m := projection(scale, pageH)
	origin := m.Transform(coords.Point{X: o.X, Y: o.Y + o.H})
	return docwriter.Rect{
		X: origin.X,
		Y: origin.Y,
		W: o.W / scale,
		H: o.H / scale,
	}
}

// place dispatches one annotation onto an output page.
func (c *Compositor) place(page docwriter.Page, o *annot.Object, scale float64, pageNum int, doc *registry.Document, trail *audit.Trail) error {
	_, pageH := page.Size()
	r := projectRect(o, scale, pageH)

	switch o.Kind {
	case annot.KindText, annot.KindNote:
		return c.placeText(page, o, r, scale, pageH)

	case annot.KindWhiteout:
		fill := colorOrBlack(o.FillColor)
		if o.FillColor == "" {
			fill = docwriter.Color{1, 1, 1}
		}
		return page.DrawRect(r, docwriter.ShapeStyle{Fill: &fill})

	case annot.KindHighlight:
		fill := colorOrBlack(o.FillColor)
		if o.FillColor == "" {
			fill = docwriter.Color{1, 1, 0}
		}
		return page.DrawRect(r, docwriter.ShapeStyle{Fill: &fill})

	case annot.KindUnderline:
		stroke := colorOrBlack(o.Color)
		return page.DrawLine(r.X, r.Y, r.X+r.W, r.Y, strokeStyle(stroke, o.StrokeWidth/scale))

	case annot.KindStrike:
		stroke := colorOrBlack(o.Color)
		mid := r.Y + r.H/2
		return page.DrawLine(r.X, mid, r.X+r.W, mid, strokeStyle(stroke, o.StrokeWidth/scale))

	case annot.KindRect:
		return page.DrawRect(r, shapeStyle(o, scale))

	case annot.KindEllipse:
		return page.DrawEllipse(r, shapeStyle(o, scale))

	case annot.KindArrow:
		return c.placeArrow(page, o, scale, pageH)

	case annot.KindFreehand:
		data, err := RasterizeFreehand(o)
		if err != nil {
			return err
		}
		return page.DrawImage(data, "image/png", freehandPlacement(o, scale, pageH))

	case annot.KindImage, annot.KindStamp:
		mime, err := SniffImageMIME(o.ImageData, o.ImageMIME)
		if err != nil {
			return err
		}
		return page.DrawImage(o.ImageData, mime, r)

	case annot.KindSignature:
		mime, err := SniffImageMIME(o.ImageData, o.ImageMIME)
		if err != nil {
			return err
		}
		if err := page.DrawImage(o.ImageData, mime, r); err != nil {
			return err
		}
		if o.Signature != nil {
			ts := o.Signature.SignedAt
			if ts.IsZero() {
				ts = c.now()
			}
			trail.Append(audit.Entry{
				SignerName:       o.Signature.SignerName,
				SignerEmail:      o.Signature.SignerEmail,
				IntentAccepted:   o.Signature.IntentAccepted,
				ConsentAccepted:  o.Signature.ConsentAccepted,
				Timestamp:        ts,
				DocumentFilename: doc.DisplayName,
				DocumentHash:     doc.Hash(),
				PageNumber:       pageNum,
				Bounds:           audit.Bounds{X: r.X, Y: r.Y, W: r.W, H: r.H},
			})
		}
		return nil

	case annot.KindTextField, annot.KindDate:
		if o.FieldName == "" {
			return c.staticTextField(page, o, r, scale)
		}
		err := page.CreateTextField(o.FieldName, r, docwriter.TextFieldOpts{
			Value:    o.Value,
			FontSize: fontSizeOf(o) / scale,
		})
		if err != nil {
			c.log.Warn("field synthesis failed, drawing static placeholder",
				observability.String("field", o.FieldName),
				observability.Error("err", err))
			return c.staticTextField(page, o, r, scale)
		}
		return nil

	case annot.KindCheckbox:
		if o.FieldName == "" {
			return c.staticCheckbox(page, o, r, scale)
		}
		if err := page.CreateCheckbox(o.FieldName, r, o.Checked); err != nil {
			c.log.Warn("field synthesis failed, drawing static placeholder",
				observability.String("field", o.FieldName),
				observability.Error("err", err))
			return c.staticCheckbox(page, o, r, scale)
		}
		return nil

	case annot.KindRadio:
		if o.FieldName == "" {
			return c.staticRadio(page, o, r, scale)
		}
		if err := page.CreateRadio(o.FieldName, r, o.Checked, "On"); err != nil {
			c.log.Warn("field synthesis failed, drawing static placeholder",
				observability.String("field", o.FieldName),
				observability.Error("err", err))
			return c.staticRadio(page, o, r, scale)
		}
		return nil

	case annot.KindDropdown:
		if o.FieldName == "" {
			return c.staticTextField(page, o, r, scale)
		}
		if err := page.CreateChoice(o.FieldName, r, o.Options, o.Value); err != nil {
			c.log.Warn("field synthesis failed, drawing static placeholder",
				observability.String("field", o.FieldName),
				observability.Error("err", err))
			return c.staticTextField(page, o, r, scale)
		}
		return nil

	case annot.KindSigField:
		// Unsigned signature fields export as a visual placeholder;
		// the output format's notion of a signature field is not
		// synthesized here.
		border := docwriter.Color{0.3, 0.3, 0.3}
		if err := page.DrawRect(r, docwriter.ShapeStyle{Stroke: &border, Width: 1}); err != nil {
			return err
		}
		return page.DrawText("Sign here", r.X+2, r.Y+r.H/3, docwriter.TextStyle{
			Font: "Helvetica", Size: 10, Color: border,
		})

	default:
		return fmt.Errorf("compositor: unhandled annotation kind %q", o.Kind)
	}
}

func (c *Compositor) placeText(page docwriter.Page, o *annot.Object, r docwriter.Rect, scale, pageH float64) error {
	lines := richtext.Lines(o.Text)
	if len(lines) == 0 {
		return nil
	}
	size := fontSizeOf(o)
	lineHeight := size * 1.2
	// Baseline sits one ascent below the box top; ascent approximated
	// at 80% of the em size.
	ascent := size * 0.8
	style := docwriter.TextStyle{
		Font:  FontForFamily(o.FontFamily),
		Size:  size / scale,
		Color: colorOrBlack(o.Color),
	}
	for i, line := range lines {
		baselineCanvas := o.Y + ascent + float64(i)*lineHeight
		y := pageH - baselineCanvas/scale
		if err := page.DrawText(line, o.X/scale, y, style); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compositor) placeArrow(page docwriter.Page, o *annot.Object, scale, pageH float64) error {
	var from, to [2]float64
	if len(o.Points) >= 2 {
		from = [2]float64{o.Points[0].X / scale, pageH - o.Points[0].Y/scale}
		to = [2]float64{o.Points[len(o.Points)-1].X / scale, pageH - o.Points[len(o.Points)-1].Y/scale}
	} else {
		from = [2]float64{o.X / scale, pageH - o.Y/scale}
		to = [2]float64{(o.X + o.W) / scale, pageH - (o.Y+o.H)/scale}
	}
	stroke := colorOrBlack(o.Color)
	style := strokeStyle(stroke, o.StrokeWidth/scale)
	if err := page.DrawLine(from[0], from[1], to[0], to[1], style); err != nil {
		return err
	}
	for _, tip := range arrowHead(from, to) {
		if err := page.DrawLine(to[0], to[1], tip[0], tip[1], style); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compositor) staticTextField(page docwriter.Page, o *annot.Object, r docwriter.Rect, scale float64) error {
	border := docwriter.Color{0.4, 0.4, 0.4}
	if err := page.DrawRect(r, docwriter.ShapeStyle{Stroke: &border, Width: 0.75}); err != nil {
		return err
	}
	if o.Value == "" {
		return nil
	}
	size := fontSizeOf(o) / scale
	return page.DrawText(o.Value, r.X+2, r.Y+(r.H-size)/2, docwriter.TextStyle{
		Font:  FontForFamily(o.FontFamily),
		Size:  size,
		Color: docwriter.Color{},
	})
}

func (c *Compositor) staticCheckbox(page docwriter.Page, o *annot.Object, r docwriter.Rect, scale float64) error {
	border := docwriter.Color{0.4, 0.4, 0.4}
	if err := page.DrawRect(r, docwriter.ShapeStyle{Stroke: &border, Width: 0.75}); err != nil {
		return err
	}
	if !o.Checked {
		return nil
	}
	mark := docwriter.Color{}
	style := strokeStyle(mark, 1)
	if err := page.DrawLine(r.X, r.Y, r.X+r.W, r.Y+r.H, style); err != nil {
		return err
	}
	return page.DrawLine(r.X, r.Y+r.H, r.X+r.W, r.Y, style)
}

func (c *Compositor) staticRadio(page docwriter.Page, o *annot.Object, r docwriter.Rect, scale float64) error {
	border := docwriter.Color{0.4, 0.4, 0.4}
	if err := page.DrawEllipse(r, docwriter.ShapeStyle{Stroke: &border, Width: 0.75}); err != nil {
		return err
	}
	if !o.Checked {
		return nil
	}
	fill := docwriter.Color{}
	inner := docwriter.Rect{
		X: r.X + r.W/4, Y: r.Y + r.H/4,
		W: r.W / 2, H: r.H / 2,
	}
	return page.DrawEllipse(inner, docwriter.ShapeStyle{Fill: &fill})
}

func fontSizeOf(o *annot.Object) float64 {
	if o.FontSize > 0 {
		return o.FontSize
	}
	return 14
}

func strokeStyle(c docwriter.Color, width float64) docwriter.ShapeStyle {
	if width <= 0 {
		width = 1
	}
	stroke := c
	return docwriter.ShapeStyle{Stroke: &stroke, Width: width}
}

func shapeStyle(o *annot.Object, scale float64) docwriter.ShapeStyle {
	style := docwriter.ShapeStyle{Width: o.StrokeWidth / scale}
	if style.Width <= 0 {
		style.Width = 1
	}
	stroke := colorOrBlack(o.Color)
	style.Stroke = &stroke
	if o.FillColor != "" {
		fill := colorOrBlack(o.FillColor)
		style.Fill = &fill
	}
	return style
}

// arrowHead returns the two barb endpoints for an arrow tip, 30
// degrees off the shaft.
func arrowHead(from, to [2]float64) [2][2]float64 {
	dx := to[0] - from[0]
	dy := to[1] - from[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return [2][2]float64{to, to}
	}
	barb := length * 0.25
	if barb > 12 {
		barb = 12
	}
	ux, uy := dx/length, dy/length
	// Rotate the reversed unit vector by +-30 degrees.
	const cos, sin = 0.8660254037844387, 0.5
	bx, by := -ux, -uy
	left := [2]float64{to[0] + (bx*cos-by*sin)*barb, to[1] + (bx*sin+by*cos)*barb}
	right := [2]float64{to[0] + (bx*cos+by*sin)*barb, to[1] + (-bx*sin+by*cos)*barb}
	return [2][2]float64{left, right}
}
