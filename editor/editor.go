// Package editor is the session facade tying the pieces together: one
// document registry, one page sequence, one annotation surface per view
// page, and the export pipeline. A session is single-goroutine; callers
// serialize access the way a UI event loop does.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/audit"
	"github.com/docmark/docmark/canvas"
	"github.com/docmark/docmark/compositor"
	"github.com/docmark/docmark/config"
	"github.com/docmark/docmark/coords"
	"github.com/docmark/docmark/docwriter"
	"github.com/docmark/docmark/observability"
	"github.com/docmark/docmark/raster"
	"github.com/docmark/docmark/registry"
	"github.com/docmark/docmark/scripting"
	"github.com/docmark/docmark/sequence"
	"github.com/docmark/docmark/surface"
	"github.com/docmark/docmark/textrecog"
)

var (
	ErrNoActivePage = errors.New("editor: no active page")
	ErrUnknownPage  = errors.New("editor: unknown view page")
)

// Session owns one editing session over one or more source documents.
type Session struct {
	cfg config.Editor
	log observability.Logger

	registry *registry.Registry
	seq      *sequence.Sequence
	surfaces map[string]*surface.Surface
	images   map[string]raster.PageImage

	rasterizer raster.Rasterizer
	recognizer textrecog.Engine
	validator  surface.ScriptValidator

	scale  float64
	active string
	mode   surface.Mode
	tool   surface.Tool

	historyObs  []func(pageID string)
	sequenceObs []func()
	modeObs     []func(surface.Mode)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithRasterizer sets the page rasterizer used for display rendering
// and highlight text capture.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(s *Session) { s.rasterizer = r }
}

// WithRecognizer sets the text-recognition engine used under finalized
// highlights. Only consulted when the config enables text capture.
func WithRecognizer(e textrecog.Engine) Option {
	return func(s *Session) { s.recognizer = e }
}

// WithValidator overrides the field validation script engine.
func WithValidator(v surface.ScriptValidator) Option {
	return func(s *Session) { s.validator = v }
}

// New creates an empty session.
func New(cfg config.Editor, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		log:      observability.NopLogger{},
		registry: registry.New(),
		seq:      sequence.New(),
		surfaces: make(map[string]*surface.Surface),
		images:   make(map[string]raster.PageImage),
		scale:    1,
		mode:     surface.ModeEdit,
		tool:     surface.ToolSelect,
	}
	for _, o := range opts {
		o(s)
	}
	if s.validator == nil && cfg.EnableFieldScripts {
		s.validator = scripting.NewValidator()
	}
	if s.recognizer == nil {
		s.recognizer = textrecog.DefaultEngine()
	}
	return s
}

// Registry exposes the session's document registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Scale returns the current display scale.
func (s *Session) Scale() float64 { return s.scale }

// Pages returns the current view-page sequence.
func (s *Session) Pages() []sequence.ViewPage { return s.seq.Pages() }

// Surface returns the annotation surface for a view page.
func (s *Session) Surface(pageID string) (*surface.Surface, bool) {
	sf, ok := s.surfaces[pageID]
	return sf, ok
}

// PageImage returns the rendered bitmap for a view page, if its last
// render succeeded.
func (s *Session) PageImage(pageID string) (raster.PageImage, bool) {
	img, ok := s.images[pageID]
	return img, ok
}

// OnHistoryChanged registers an observer invoked with the page id after
// every history mutation on any page.
func (s *Session) OnHistoryChanged(fn func(pageID string)) {
	s.historyObs = append(s.historyObs, fn)
}

// OnSequenceChanged registers an observer invoked after every structural
// change to the page sequence.
func (s *Session) OnSequenceChanged(fn func()) {
	s.sequenceObs = append(s.sequenceObs, fn)
}

// OnModeChanged registers an observer invoked after every mode switch.
func (s *Session) OnModeChanged(fn func(surface.Mode)) {
	s.modeObs = append(s.modeObs, fn)
}

// Load replaces the session contents with a freshly registered document.
func (s *Session) Load(ctx context.Context, displayName string, data []byte, pageCount int) ([]sequence.ViewPage, error) {
	doc, err := s.registry.Register(displayName, data, pageCount)
	if err != nil {
		return nil, err
	}
	for id := range s.surfaces {
		delete(s.surfaces, id)
		delete(s.images, id)
	}
	s.active = ""
	added := s.seq.Load(doc)
	s.adopt(ctx, added)
	s.sequenceChanged()
	return added, nil
}

// Append registers another document and appends its pages to the
// sequence. Existing pages, identifiers and histories are untouched.
func (s *Session) Append(ctx context.Context, displayName string, data []byte, pageCount int) ([]sequence.ViewPage, error) {
	doc, err := s.registry.Register(displayName, data, pageCount)
	if err != nil {
		return nil, err
	}
	added := s.seq.Append(doc)
	s.adopt(ctx, added)
	s.sequenceChanged()
	return added, nil
}

// adopt creates surfaces for freshly added view pages and renders them
// sequentially. A failed render keeps the page in the sequence without
// a bitmap; annotation still works.
func (s *Session) adopt(ctx context.Context, pages []sequence.ViewPage) {
	for _, vp := range pages {
		s.surfaces[vp.ID] = s.newSurface(vp.ID)
		s.render(ctx, vp)
		if s.active == "" {
			s.active = vp.ID
		}
	}
}

func (s *Session) newSurface(pageID string) *surface.Surface {
	sf := surface.New(pageID, canvas.NewStore(), s.cfg, s.log)
	sf.SetMode(s.mode)
	sf.SetTool(s.tool)
	sf.OnHistoryChanged = func() {
		for _, fn := range s.historyObs {
			fn(pageID)
		}
	}
	sf.FieldNameInUse = func(name, exceptID string) bool {
		return s.fieldNameInUse(name, exceptID)
	}
	sf.UncheckRadioGroup = func(fieldName, keepID string) {
		for _, other := range s.surfaces {
			other.UncheckRadios(fieldName, keepID)
		}
	}
	sf.Validator = s.validator
	if s.cfg.EnableTextCapture {
		sf.TextCapture = func(bounds coords.Rect) (string, error) {
			return s.captureText(pageID, bounds)
		}
	}
	return sf
}

func (s *Session) fieldNameInUse(name, exceptID string) bool {
	for _, sf := range s.surfaces {
		for _, o := range sf.Objects() {
			if o.ID != exceptID && o.Kind.IsField() && o.FieldName == name {
				return true
			}
		}
	}
	return false
}

// render rasterizes one view page at the current scale. Failure is
// page-local: logged, bitmap dropped, page kept.
func (s *Session) render(ctx context.Context, vp sequence.ViewPage) {
	if s.rasterizer == nil {
		return
	}
	doc, err := s.registry.Get(vp.DocumentID)
	if err != nil {
		s.log.Error("render: unknown document", observability.String("page", vp.ID),
			observability.Error("err", err))
		return
	}
	img, err := s.rasterizer.Render(ctx, doc, vp.SourcePage, s.scale, vp.Rotation)
	if err != nil {
		s.log.Warn("page render failed", observability.String("page", vp.ID),
			observability.Error("err", err))
		delete(s.images, vp.ID)
		return
	}
	s.images[vp.ID] = img
}

// captureText recognizes the page text under a highlight's bounds using
// the last rendered bitmap, which shares the highlight's scale.
func (s *Session) captureText(pageID string, bounds coords.Rect) (string, error) {
	img, ok := s.images[pageID]
	if !ok || img.Image == nil {
		return "", fmt.Errorf("editor: page %s has no rendered bitmap", pageID)
	}
	region := image.Rect(int(bounds.X), int(bounds.Y), int(bounds.X+bounds.W), int(bounds.Y+bounds.H))
	crop, ok := textrecog.CropRegion(img.Image, region)
	if !ok {
		return "", fmt.Errorf("editor: highlight region outside page bitmap")
	}
	res, err := s.recognizer.Recognize(context.Background(), textrecog.Input{
		Image:     crop,
		Languages: s.cfg.RecognizeLanguages,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ActivePage returns the id of the page receiving keyboard-level
// operations (undo, redo, delete-selected).
func (s *Session) ActivePage() string { return s.active }

// SetActivePage switches the active page.
func (s *Session) SetActivePage(pageID string) error {
	if _, ok := s.surfaces[pageID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	s.active = pageID
	return nil
}

func (s *Session) activeSurface() (*surface.Surface, error) {
	sf, ok := s.surfaces[s.active]
	if !ok {
		return nil, ErrNoActivePage
	}
	return sf, nil
}

// Undo undoes the last structural mutation on the active page.
func (s *Session) Undo() error {
	sf, err := s.activeSurface()
	if err != nil {
		return err
	}
	sf.Undo()
	return nil
}

// Redo re-applies the last undone mutation on the active page.
func (s *Session) Redo() error {
	sf, err := s.activeSurface()
	if err != nil {
		return err
	}
	sf.Redo()
	return nil
}

// Mode returns the session mode.
func (s *Session) Mode() surface.Mode { return s.mode }

// SetMode switches every page between edit and fill.
func (s *Session) SetMode(m surface.Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	for _, sf := range s.surfaces {
		sf.SetMode(m)
	}
	for _, fn := range s.modeObs {
		fn(m)
	}
}

// Tool returns the active tool.
func (s *Session) Tool() surface.Tool { return s.tool }

// SetTool switches the active tool on every page.
func (s *Session) SetTool(t surface.Tool) {
	s.tool = t
	for _, sf := range s.surfaces {
		sf.SetTool(t)
	}
}

// DeletePages removes the given view pages, releasing their surfaces
// and histories. Unknown ids are ignored.
func (s *Session) DeletePages(ids map[string]bool) []string {
	removed := s.seq.Delete(ids)
	for _, id := range removed {
		delete(s.surfaces, id)
		delete(s.images, id)
		if s.active == id {
			s.active = ""
		}
	}
	if s.active == "" {
		if pages := s.seq.Pages(); len(pages) > 0 {
			s.active = pages[0].ID
		}
	}
	if len(removed) > 0 {
		s.sequenceChanged()
	}
	return removed
}

// DuplicatePage inserts a copy of a view page after the original. The
// copy starts from the original's current annotation state with a
// fresh history baseline.
func (s *Session) DuplicatePage(ctx context.Context, pageID string) (sequence.ViewPage, error) {
	src, ok := s.surfaces[pageID]
	if !ok {
		return sequence.ViewPage{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	dup, ok := s.seq.Duplicate(pageID)
	if !ok {
		return sequence.ViewPage{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	sf := s.newSurface(dup.ID)
	sf.LoadSnapshot(src.Snapshot())
	s.surfaces[dup.ID] = sf
	s.render(ctx, dup)
	s.sequenceChanged()
	return dup, nil
}

// RotatePages rotates the given pages a further 90 degrees clockwise
// and re-renders them.
func (s *Session) RotatePages(ctx context.Context, ids map[string]bool) {
	s.seq.Rotate(ids)
	for _, vp := range s.seq.Pages() {
		if ids[vp.ID] {
			s.render(ctx, vp)
		}
	}
	s.sequenceChanged()
}

// ReorderPage moves one page before another. Annotation state follows
// the page identifier, never the position.
func (s *Session) ReorderPage(fromID, toID string) {
	s.seq.Reorder(fromID, toID)
	s.sequenceChanged()
}

// ExtractSubset returns copies of the selected pages without mutating
// the sequence.
func (s *Session) ExtractSubset(ids map[string]bool) []sequence.ViewPage {
	return s.seq.ExtractSubset(ids)
}

// SplitByRanges partitions the current sequence positions into page
// groups without mutating the sequence.
func (s *Session) SplitByRanges(ranges []sequence.Range) [][]sequence.ViewPage {
	return s.seq.SplitByRanges(ranges)
}

// SetScale changes the display scale, rescaling every page's stored
// annotation geometry and re-rendering bitmaps, so canvas coordinates
// and page bitmaps always agree and export sees consistent input.
func (s *Session) SetScale(ctx context.Context, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("editor: scale must be positive, got %g", scale)
	}
	if scale == s.scale {
		return nil
	}
	factor := scale / s.scale
	s.scale = scale
	for _, sf := range s.surfaces {
		sf.RescaleGeometry(factor)
	}
	for _, vp := range s.seq.Pages() {
		s.render(ctx, vp)
	}
	return nil
}

// Export compiles the current sequence and annotation state into the
// given writer and returns the serialized output plus the signature
// audit entries.
func (s *Session) Export(ctx context.Context, w docwriter.Writer) ([]byte, []audit.Entry, error) {
	pages := s.seq.Pages()
	snaps := make(map[string]*annot.Snapshot, len(pages))
	for _, vp := range pages {
		if sf, ok := s.surfaces[vp.ID]; ok {
			snaps[vp.ID] = sf.Snapshot()
		}
	}
	producer := s.cfg.Producer
	if producer == "" {
		producer = "docmark"
	}
	c := compositor.New(
		compositor.WithLogger(s.log),
		compositor.WithProducer(producer, producer),
	)
	return c.Export(ctx, w, compositor.Input{
		Registry:    s.registry,
		Pages:       pages,
		Annotations: snaps,
		Scale:       s.scale,
	})
}

func (s *Session) sequenceChanged() {
	for _, fn := range s.sequenceObs {
		fn()
	}
}
