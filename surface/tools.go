package surface

import (
	"math"

	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/canvas"
	"github.com/docmark/docmark/coords"
	"github.com/docmark/docmark/observability"
)

// Tool names the interaction a pointer-down triggers. Every annotation
// kind has a tool of the same name; ToolSelect manipulates existing
// objects.
type Tool string

const ToolSelect Tool = "select"

// ToolFor returns the placement tool for a kind.
func ToolFor(k annot.Kind) Tool { return Tool(k) }

// Kind returns the annotation kind a placement tool builds, or false
// for the select tool.
func (t Tool) Kind() (annot.Kind, bool) {
	if t == ToolSelect {
		return "", false
	}
	return annot.Kind(t), true
}

// PointerDown routes a pointer-down gesture by mode and active tool.
// In fill mode the returned FillRequest, when non-nil, asks the UI to
// open a value editor or the signing flow.
func (s *Surface) PointerDown(ev canvas.PointerEvent) *FillRequest {
	if s.mode == ModeFill {
		return s.fillPointerDown(ev)
	}
	kind, placing := s.tool.Kind()
	if !placing {
		s.selectPointerDown(ev)
		return nil
	}
	if kind.IsDragBuilt() {
		s.beginDrag(kind, ev)
		return nil
	}
	s.placeOneShot(kind, ev)
	return nil
}

// PointerMove extends the active gesture, if any.
func (s *Surface) PointerMove(ev canvas.PointerEvent) {
	switch {
	case s.drag != nil:
		s.updateDrag(ev)
	case s.moveDrag != nil:
		dx := ev.X - s.moveDrag.lastX
		dy := ev.Y - s.moveDrag.lastY
		if dx == 0 && dy == 0 {
			return
		}
		if s.store.MoveBy(s.moveDrag.id, dx, dy) {
			s.moveDrag.moved = true
		}
		s.moveDrag.lastX = ev.X
		s.moveDrag.lastY = ev.Y
	}
}

// PointerUp finalizes the active gesture. Drag-built objects smaller
// than the minimum extent in both dimensions are discarded as
// accidental specks.
func (s *Surface) PointerUp(ev canvas.PointerEvent) {
	switch {
	case s.drag != nil:
		s.finishDrag(ev)
	case s.moveDrag != nil:
		moved := s.moveDrag.moved
		s.moveDrag = nil
		s.endGesture()
		if moved {
			s.capture()
		}
	}
}

func (s *Surface) selectPointerDown(ev canvas.PointerEvent) {
	hit, ok := s.store.HitTest(ev)
	if !ok {
		s.store.ClearSelection()
		return
	}
	s.store.ClearSelection()
	s.store.Select(hit.ID)
	if s.store.InteractivityOf(hit.ID).Movable {
		s.moveDrag = &moveState{id: hit.ID, lastX: ev.X, lastY: ev.Y}
		s.gestureEnd = s.beginGesture()
	}
}

func (s *Surface) fillPointerDown(ev canvas.PointerEvent) *FillRequest {
	hit, ok := s.store.HitTest(ev)
	if !ok {
		s.store.ClearSelection()
		return nil
	}
	s.store.ClearSelection()
	s.store.Select(hit.ID)
	if hit.Locked {
		return nil
	}
	switch hit.Kind {
	case annot.KindCheckbox:
		if err := s.ToggleCheckbox(hit.ID); err != nil {
			s.log.Warn("checkbox toggle failed", observability.Error("err", err))
		}
		return nil
	case annot.KindRadio:
		if err := s.ToggleRadio(hit.ID); err != nil {
			s.log.Warn("radio toggle failed", observability.Error("err", err))
		}
		return nil
	case annot.KindTextField, annot.KindDate, annot.KindDropdown, annot.KindSigField:
		return &FillRequest{
			ObjectID: hit.ID,
			Kind:     hit.Kind,
			Bounds:   hit.Bounds(),
			Value:    hit.Value,
			Options:  append([]string(nil), hit.Options...),
		}
	}
	return nil
}

// placeOneShot creates one fully formed object at the pointer location
// and selects it. Except for signature and field placement, the tool
// snaps back to select so the next click manipulates rather than
// places.
func (s *Surface) placeOneShot(kind annot.Kind, ev canvas.PointerEvent) {
	obj := s.newObjectAt(kind, ev)
	s.store.Add(obj)
	s.applyPolicyFor(obj)
	s.store.Select(obj.ID)
	if !kind.IsField() && kind != annot.KindSignature {
		s.SetTool(ToolSelect)
		s.store.Select(obj.ID)
	}
}

func (s *Surface) beginDrag(kind annot.Kind, ev canvas.PointerEvent) {
	obj := &annot.Object{
		ID:          annot.NewID(),
		Kind:        kind,
		X:           ev.X,
		Y:           ev.Y,
		Color:       "#000000",
		StrokeWidth: 2,
	}
	switch kind {
	case annot.KindWhiteout:
		obj.FillColor = "#ffffff"
	case annot.KindHighlight:
		obj.FillColor = "#ffff00"
	case annot.KindFreehand, annot.KindArrow:
		obj.Points = []coords.Point{{X: ev.X, Y: ev.Y}}
	}
	s.drag = &dragState{obj: obj, startX: ev.X, startY: ev.Y}
	s.gestureEnd = s.beginGesture()
	s.store.Add(obj)
	// Provisional objects are inert until finalized.
	s.store.SetInteractivity(obj.ID, canvas.Interactivity{})
}

func (s *Surface) updateDrag(ev canvas.PointerEvent) {
	d := s.drag
	switch d.obj.Kind {
	case annot.KindFreehand:
		s.store.Update(d.obj.ID, func(o *annot.Object) {
			o.Points = append(o.Points, coords.Point{X: ev.X, Y: ev.Y})
			r := pathBounds(o.Points)
			o.X, o.Y, o.W, o.H = r.X, r.Y, r.W, r.H
		})
	case annot.KindArrow:
		s.store.Update(d.obj.ID, func(o *annot.Object) {
			o.Points = []coords.Point{{X: d.startX, Y: d.startY}, {X: ev.X, Y: ev.Y}}
			r := pathBounds(o.Points)
			o.X, o.Y, o.W, o.H = r.X, r.Y, r.W, r.H
		})
	default:
		s.store.Update(d.obj.ID, func(o *annot.Object) {
			r := coords.Rect{X: d.startX, Y: d.startY, W: ev.X - d.startX, H: ev.Y - d.startY}.Normalize()
			o.X, o.Y, o.W, o.H = r.X, r.Y, r.W, r.H
		})
	}
}

func (s *Surface) finishDrag(ev canvas.PointerEvent) {
	s.updateDrag(ev)
	d := s.drag
	s.drag = nil

	obj, ok := s.store.Get(d.obj.ID)
	if !ok {
		s.endGesture()
		return
	}
	if obj.W < s.cfg.MinDragPx && obj.H < s.cfg.MinDragPx {
		s.store.Remove(obj.ID)
		s.endGesture()
		return
	}
	if obj.Kind == annot.KindHighlight && s.TextCapture != nil {
		text, err := s.TextCapture(obj.Bounds())
		if err != nil {
			s.log.Warn("highlight text capture failed", observability.Error("err", err))
		} else if text != "" {
			s.store.Update(obj.ID, func(o *annot.Object) { o.CapturedText = text })
		}
	}
	s.applyPolicyFor(obj)
	s.store.Select(obj.ID)
	s.endGesture()
	s.capture()
}

func (s *Surface) applyPolicyFor(o *annot.Object) {
	s.store.SetInteractivity(o.ID, PolicyFor(o.Kind, o.Locked, s.mode, s.tool))
}

func (s *Surface) newObjectAt(kind annot.Kind, ev canvas.PointerEvent) *annot.Object {
	obj := &annot.Object{
		ID:   annot.NewID(),
		Kind: kind,
		X:    ev.X,
		Y:    ev.Y,
	}
	switch kind {
	case annot.KindText:
		obj.W, obj.H = 160, s.cfg.DefaultFontSize*1.4
		obj.FontFamily = s.cfg.DefaultFontFamily
		obj.FontSize = s.cfg.DefaultFontSize
		obj.Color = "#000000"
		obj.Text = "Text"
	case annot.KindNote:
		obj.W, obj.H = 180, 120
		obj.FontFamily = s.cfg.DefaultFontFamily
		obj.FontSize = s.cfg.DefaultFontSize
		obj.Color = "#000000"
	case annot.KindStamp, annot.KindImage:
		obj.W, obj.H = 140, 140
		obj.ImageData = s.pendingImage
		obj.ImageMIME = s.pendingMIME
		s.pendingImage = nil
		s.pendingMIME = ""
	case annot.KindSignature:
		obj.W, obj.H = 180, 48
		obj.ImageData = s.pendingImage
		obj.ImageMIME = s.pendingMIME
		obj.Signature = s.pendingSig
		obj.Locked = true
		s.pendingImage = nil
		s.pendingMIME = ""
		s.pendingSig = nil
	case annot.KindTextField:
		obj.W, obj.H = 150, 28
		obj.FontFamily = s.cfg.DefaultFontFamily
		obj.FontSize = s.cfg.DefaultFontSize
	case annot.KindDate:
		obj.W, obj.H = 120, 28
		obj.FontFamily = s.cfg.DefaultFontFamily
		obj.FontSize = s.cfg.DefaultFontSize
	case annot.KindDropdown:
		obj.W, obj.H = 150, 28
	case annot.KindCheckbox, annot.KindRadio:
		obj.W, obj.H = 16, 16
	case annot.KindSigField:
		obj.W, obj.H = 180, 48
	}
	return obj
}

func pathBounds(pts []coords.Point) coords.Rect {
	if len(pts) == 0 {
		return coords.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return coords.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// endGesture releases the gesture suppression taken at gesture start.
func (s *Surface) endGesture() {
	if s.gestureEnd != nil {
		s.gestureEnd()
		s.gestureEnd = nil
	}
}
