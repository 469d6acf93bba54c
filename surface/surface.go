// Package surface implements the per-page annotation surface: an object
// store with tool dispatch, per-page undo/redo history, locking, and the
// edit/fill mode controller.
package surface

import (
	"errors"
	"fmt"

	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/canvas"
	"github.com/docmark/docmark/config"
	"github.com/docmark/docmark/coords"
	"github.com/docmark/docmark/observability"
)

var (
	ErrLocked             = errors.New("surface: object is locked")
	ErrDuplicateFieldName = errors.New("surface: field name already in use")
	ErrUnknownObject      = errors.New("surface: unknown object")
	ErrNotFillable        = errors.New("surface: object is not fillable")
	ErrUnknownOption      = errors.New("surface: option not offered by field")
)

// FillRequest asks the embedding UI to open a value editor (or the
// signing flow, for signature fields) over an on-canvas bounding box.
type FillRequest struct {
	ObjectID string
	Kind     annot.Kind
	Bounds   coords.Rect
	Value    string
	Options  []string
}

// ScriptValidator runs a field's validation script against a candidate
// value; a non-nil error rejects the commit.
type ScriptValidator interface {
	Validate(script, fieldName, value string) error
}

// Surface owns one page's annotation state.
type Surface struct {
	PageID string

	store   canvas.ObjectStore
	history *History
	tool    Tool
	mode    Mode
	cfg     config.Editor
	log     observability.Logger

	restoring bool
	suppress  int

	drag       *dragState
	moveDrag   *moveState
	gestureEnd func()

	pendingImage []byte
	pendingMIME  string
	pendingSig   *annot.SignatureMeta

	// OnHistoryChanged is invoked after every history push, undo and
	// redo on this page.
	OnHistoryChanged func()
	// FieldNameInUse reports whether a field name is taken anywhere in
	// the document, excluding the given object. Wired by the editor.
	FieldNameInUse func(name, exceptID string) bool
	// UncheckRadioGroup clears every other radio in the named group
	// across all pages. Wired by the editor.
	UncheckRadioGroup func(fieldName, keepID string)
	// Validator, when set, runs field validation scripts on commit.
	Validator ScriptValidator
	// TextCapture, when set, recognizes the page text under a freshly
	// finalized highlight.
	TextCapture func(bounds coords.Rect) (string, error)
}

type dragState struct {
	obj    *annot.Object
	startX float64
	startY float64
}

type moveState struct {
	id           string
	lastX, lastY float64
	moved        bool
}

// New creates the surface for one view page and seeds its history with
// a blank baseline so undo always has a floor.
func New(pageID string, store canvas.ObjectStore, cfg config.Editor, log observability.Logger) *Surface {
	if log == nil {
		log = observability.NopLogger{}
	}
	s := &Surface{
		PageID:  pageID,
		store:   store,
		history: NewHistory(cfg.HistoryCap),
		tool:    ToolSelect,
		mode:    ModeEdit,
		cfg:     cfg,
		log:     log.With(observability.String("page", pageID)),
	}
	store.SetOnMutate(s.capture)
	s.history.Seed(annot.TakeSnapshot(nil))
	return s
}

// LoadSnapshot replaces the page contents with snap and makes it the
// new history baseline. Used when a view page is duplicated: the copy
// starts from the source page's current state with a fresh history.
func (s *Surface) LoadSnapshot(snap *annot.Snapshot) {
	s.replay(snap)
	s.history = NewHistory(s.cfg.HistoryCap)
	s.history.Seed(annot.TakeSnapshot(s.store.Objects()))
	s.historyChanged()
}

// RescaleGeometry multiplies every object's stored geometry by factor.
// Zoom is a view change, not an edit: the history is rebased onto the
// rescaled state instead of gaining a step.
func (s *Surface) RescaleGeometry(factor float64) {
	if factor == 1 || factor <= 0 {
		return
	}
	end := s.beginGesture()
	for _, o := range s.store.Objects() {
		s.store.Update(o.ID, func(o *annot.Object) {
			o.X *= factor
			o.Y *= factor
			o.W *= factor
			o.H *= factor
			o.FontSize *= factor
			o.StrokeWidth *= factor
			for i := range o.Points {
				o.Points[i].X *= factor
				o.Points[i].Y *= factor
			}
		})
	}
	end()
	s.history = NewHistory(s.cfg.HistoryCap)
	s.history.Seed(annot.TakeSnapshot(s.store.Objects()))
	s.historyChanged()
}

// Store exposes the underlying object store.
func (s *Surface) Store() canvas.ObjectStore { return s.store }

// Objects returns the page's objects in z-order.
func (s *Surface) Objects() []*annot.Object { return s.store.Objects() }

// Snapshot captures the page's current persisted state.
func (s *Surface) Snapshot() *annot.Snapshot { return annot.TakeSnapshot(s.store.Objects()) }

// Tool returns the active tool.
func (s *Surface) Tool() Tool { return s.tool }

// SetTool switches the active tool and re-applies interactivity.
func (s *Surface) SetTool(t Tool) {
	s.tool = t
	s.applyPolicies()
}

// Mode returns the current interaction mode.
func (s *Surface) Mode() Mode { return s.mode }

// SetMode switches between edit and fill and re-applies interactivity
// to every object.
func (s *Surface) SetMode(m Mode) {
	s.mode = m
	s.applyPolicies()
}

// SetPendingImage stages image bytes for the next image, stamp or
// signature placement.
func (s *Surface) SetPendingImage(data []byte, mime string) {
	s.pendingImage = append([]byte(nil), data...)
	s.pendingMIME = mime
}

// SetPendingSignature stages signer metadata for the next signature
// placement.
func (s *Surface) SetPendingSignature(meta annot.SignatureMeta) {
	m := meta
	s.pendingSig = &m
}

// CanUndo reports whether undo would change the page.
func (s *Surface) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether redo would change the page.
func (s *Surface) CanRedo() bool { return s.history.CanRedo() }

// Undo replays the previous snapshot. No-op at the seed baseline.
func (s *Surface) Undo() {
	snap := s.history.Undo()
	if snap == nil {
		return
	}
	s.replay(snap)
	s.historyChanged()
}

// Redo replays the next snapshot. No-op when the redo stack is empty.
func (s *Surface) Redo() {
	snap := s.history.Redo()
	if snap == nil {
		return
	}
	s.replay(snap)
	s.historyChanged()
}

// replay clears the store and reconstructs every object from the
// snapshot. Capture is suppressed for the whole reconstruction; the
// guard is released even if a policy application panics.
func (s *Surface) replay(snap *annot.Snapshot) {
	s.restoring = true
	defer func() { s.restoring = false }()
	s.store.Clear()
	for _, o := range snap.Restore() {
		s.store.Add(o)
	}
	s.applyPolicies()
}

// capture is the mutation hook: it snapshots the entire page onto the
// undo stack and clears redo. Suppressed while restoring or during a
// composite gesture.
func (s *Surface) capture() {
	if s.restoring || s.suppress > 0 {
		return
	}
	s.history.Push(annot.TakeSnapshot(s.store.Objects()))
	s.historyChanged()
}

func (s *Surface) historyChanged() {
	if s.OnHistoryChanged != nil {
		s.OnHistoryChanged()
	}
}

// beginGesture suppresses capture until the returned func runs. Nested
// gestures are allowed.
func (s *Surface) beginGesture() func() {
	s.suppress++
	return func() { s.suppress-- }
}

func (s *Surface) applyPolicies() {
	for _, o := range s.store.Objects() {
		s.store.SetInteractivity(o.ID, PolicyFor(o.Kind, o.Locked, s.mode, s.tool))
	}
}

// DeleteSelected removes every selected object that is not locked.
// The whole removal is one history step.
func (s *Surface) DeleteSelected() int {
	end := s.beginGesture()
	removed := 0
	for _, id := range s.store.Selected() {
		o, ok := s.store.Get(id)
		if !ok || o.Locked {
			continue
		}
		if s.store.Remove(id) {
			removed++
		}
	}
	end()
	if removed > 0 {
		s.capture()
	}
	return removed
}

// SetFieldName assigns a field name, rejecting duplicates at assignment
// time so bulk fill can address fields unambiguously. Radios are
// exempt: a radio group is exactly the set of radios sharing a name.
func (s *Surface) SetFieldName(id, name string) error {
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if !o.Kind.IsField() {
		return fmt.Errorf("%w: %s", ErrNotFillable, o.Kind)
	}
	if name != "" && o.Kind != annot.KindRadio && s.FieldNameInUse != nil && s.FieldNameInUse(name, id) {
		return fmt.Errorf("%w: %q", ErrDuplicateFieldName, name)
	}
	s.store.Update(id, func(o *annot.Object) { o.FieldName = name })
	return nil
}

// ToggleCheckbox flips a checkbox's state.
func (s *Surface) ToggleCheckbox(id string) error {
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if o.Kind != annot.KindCheckbox {
		return fmt.Errorf("%w: %s", ErrNotFillable, o.Kind)
	}
	if o.Locked {
		return ErrLocked
	}
	s.store.Update(id, func(o *annot.Object) { o.Checked = !o.Checked })
	return nil
}

// ToggleRadio checks a radio object and clears every other member of
// its group across all pages. Single selection per group is enforced
// here, at toggle time; there is no separate group registry.
func (s *Surface) ToggleRadio(id string) error {
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if o.Kind != annot.KindRadio {
		return fmt.Errorf("%w: %s", ErrNotFillable, o.Kind)
	}
	if o.Locked {
		return ErrLocked
	}
	end := s.beginGesture()
	s.store.Update(id, func(o *annot.Object) { o.Checked = true })
	if o.FieldName != "" && s.UncheckRadioGroup != nil {
		s.UncheckRadioGroup(o.FieldName, id)
	}
	end()
	s.capture()
	return nil
}

// UncheckRadios clears every checked radio with the given field name on
// this page, except keepID. Used by the editor's group enforcement.
// The unchecks collapse into one history step per page.
func (s *Surface) UncheckRadios(fieldName, keepID string) {
	end := s.beginGesture()
	changed := false
	for _, o := range s.store.Objects() {
		if o.Kind == annot.KindRadio && o.FieldName == fieldName && o.ID != keepID && o.Checked {
			s.store.Update(o.ID, func(o *annot.Object) { o.Checked = false })
			changed = true
		}
	}
	end()
	if changed {
		s.capture()
	}
}

// CommitValue stores a value on a text, date or dropdown field. In fill
// mode a non-empty commit locks the field. A validation script rejects
// the commit without mutating the object.
func (s *Surface) CommitValue(id, value string) error {
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	switch o.Kind {
	case annot.KindTextField, annot.KindDate, annot.KindDropdown:
	default:
		return fmt.Errorf("%w: %s", ErrNotFillable, o.Kind)
	}
	if o.Locked {
		return ErrLocked
	}
	if o.ValidateScript != "" && s.Validator != nil {
		if err := s.Validator.Validate(o.ValidateScript, o.FieldName, value); err != nil {
			return fmt.Errorf("surface: field %q rejected value: %w", o.FieldName, err)
		}
	}
	lock := s.mode == ModeFill && value != ""
	s.store.Update(id, func(o *annot.Object) {
		o.Value = value
		if lock {
			o.Locked = true
		}
	})
	if lock {
		s.store.SetInteractivity(id, PolicyFor(o.Kind, true, s.mode, s.tool))
	}
	return nil
}

// SelectOption commits one of a dropdown's offered options.
func (s *Surface) SelectOption(id, option string) error {
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if o.Kind != annot.KindDropdown {
		return fmt.Errorf("%w: %s", ErrNotFillable, o.Kind)
	}
	found := false
	for _, opt := range o.Options {
		if opt == option {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	return s.CommitValue(id, option)
}

// PlaceSignature replaces a signature field in place with a locked
// signature image carrying the audit metadata. One history step.
func (s *Surface) PlaceSignature(id string, imageData []byte, mime string, meta annot.SignatureMeta) error {
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if o.Kind != annot.KindSigField {
		return fmt.Errorf("%w: %s", ErrNotFillable, o.Kind)
	}
	if o.Locked {
		return ErrLocked
	}
	m := meta
	s.store.Update(id, func(o *annot.Object) {
		o.Kind = annot.KindSignature
		o.ImageData = append([]byte(nil), imageData...)
		o.ImageMIME = mime
		o.Signature = &m
		o.Locked = true
		o.FieldName = ""
	})
	s.store.SetInteractivity(id, PolicyFor(annot.KindSignature, true, s.mode, s.tool))
	s.log.Info("signature placed", observability.String("object", id),
		observability.String("signer", meta.SignerName))
	return nil
}
