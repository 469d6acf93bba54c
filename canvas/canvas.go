// Package canvas provides the interactive-canvas collaborator contract
// and an in-memory object store implementing it. The store keeps one
// page's annotation objects in z-order, supports hit-testing, and
// notifies a single mutation hook on every structural change.
package canvas

import (
	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/coords"
)

// Interactivity is the per-object interaction policy applied by the
// mode controller.
type Interactivity struct {
	Selectable bool
	Movable    bool
	Resizable  bool
}

// PointerEvent is a pointer position in canvas pixels.
type PointerEvent struct {
	X, Y float64
}

// ObjectStore is the per-page store contract consumed by the surface.
// The in-memory Store satisfies it; a real canvas toolkit adapter can
// be substituted by the embedding UI.
type ObjectStore interface {
	Add(obj *annot.Object)
	Remove(id string) bool
	Get(id string) (*annot.Object, bool)
	Objects() []*annot.Object
	Update(id string, mutate func(*annot.Object)) bool
	HitTest(p PointerEvent) (*annot.Object, bool)
	SetInteractivity(id string, policy Interactivity)
	InteractivityOf(id string) Interactivity
	Select(id string)
	ClearSelection()
	Selected() []string
	Clear()
	SetOnMutate(fn func())

	// MoveBy and ResizeTo honor the object's interactivity policy and
	// report whether geometry changed.
	MoveBy(id string, dx, dy float64) bool
	ResizeTo(id string, w, h float64) bool
}

// Store is the in-memory ObjectStore.
type Store struct {
	order    []*annot.Object // z-order, last on top
	policies map[string]Interactivity
	selected map[string]bool
	selOrder []string
	onMutate func()
}

func NewStore() *Store {
	return &Store{
		policies: make(map[string]Interactivity),
		selected: make(map[string]bool),
	}
}

// SetOnMutate registers the hook invoked after every structural
// mutation (add, remove, attribute update). At most one hook.
func (s *Store) SetOnMutate(fn func()) { s.onMutate = fn }

func (s *Store) notify() {
	if s.onMutate != nil {
		s.onMutate()
	}
}

// Add appends obj at the top of the z-order.
func (s *Store) Add(obj *annot.Object) {
	s.order = append(s.order, obj)
	s.notify()
}

// Remove deletes the object with the given id. Unknown ids are no-ops.
func (s *Store) Remove(id string) bool {
	for i, o := range s.order {
		if o.ID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			delete(s.policies, id)
			s.deselect(id)
			s.notify()
			return true
		}
	}
	return false
}

// Get returns the object with the given id.
func (s *Store) Get(id string) (*annot.Object, bool) {
	for _, o := range s.order {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Objects returns the objects in z-order, bottom first.
func (s *Store) Objects() []*annot.Object {
	return append([]*annot.Object(nil), s.order...)
}

// Update applies mutate to the object's persisted attributes and fires
// the mutation hook. Returns false for unknown ids.
func (s *Store) Update(id string, mutate func(*annot.Object)) bool {
	o, ok := s.Get(id)
	if !ok {
		return false
	}
	mutate(o)
	s.notify()
	return true
}

// HitTest returns the topmost selectable object containing p.
func (s *Store) HitTest(p PointerEvent) (*annot.Object, bool) {
	pt := coords.Point{X: p.X, Y: p.Y}
	for i := len(s.order) - 1; i >= 0; i-- {
		o := s.order[i]
		if !s.InteractivityOf(o.ID).Selectable {
			continue
		}
		if o.Bounds().Contains(pt) {
			return o, true
		}
	}
	return nil, false
}

// SetInteractivity sets the interaction policy for one object.
func (s *Store) SetInteractivity(id string, policy Interactivity) {
	if _, ok := s.Get(id); ok {
		s.policies[id] = policy
	}
}

// InteractivityOf returns the policy for one object. Objects default to
// fully interactive until a policy is applied.
func (s *Store) InteractivityOf(id string) Interactivity {
	if p, ok := s.policies[id]; ok {
		return p
	}
	return Interactivity{Selectable: true, Movable: true, Resizable: true}
}

// Select marks an object selected. Non-selectable objects are ignored.
func (s *Store) Select(id string) {
	if _, ok := s.Get(id); !ok {
		return
	}
	if !s.InteractivityOf(id).Selectable {
		return
	}
	if !s.selected[id] {
		s.selected[id] = true
		s.selOrder = append(s.selOrder, id)
	}
}

// ClearSelection deselects everything.
func (s *Store) ClearSelection() {
	s.selected = make(map[string]bool)
	s.selOrder = nil
}

// Selected returns the selected ids in selection order.
func (s *Store) Selected() []string {
	out := make([]string, 0, len(s.selOrder))
	for _, id := range s.selOrder {
		if s.selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// Clear removes every object without firing the mutation hook per
// object; replay rebuilds pages wholesale.
func (s *Store) Clear() {
	s.order = nil
	s.policies = make(map[string]Interactivity)
	s.ClearSelection()
}

func (s *Store) deselect(id string) {
	if !s.selected[id] {
		return
	}
	delete(s.selected, id)
	for i, sid := range s.selOrder {
		if sid == id {
			s.selOrder = append(s.selOrder[:i], s.selOrder[i+1:]...)
			break
		}
	}
}

// MoveBy translates an object if its policy allows moving.
func (s *Store) MoveBy(id string, dx, dy float64) bool {
	if !s.InteractivityOf(id).Movable {
		return false
	}
	return s.Update(id, func(o *annot.Object) {
		o.X += dx
		o.Y += dy
		for i := range o.Points {
			o.Points[i].X += dx
			o.Points[i].Y += dy
		}
	})
}

// ResizeTo sets an object's extent if its policy allows resizing.
func (s *Store) ResizeTo(id string, w, h float64) bool {
	if !s.InteractivityOf(id).Resizable {
		return false
	}
	return s.Update(id, func(o *annot.Object) {
		o.W = w
		o.H = h
	})
}
