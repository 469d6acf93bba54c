package surface

import "github.com/docmark/docmark/annot"

// History holds one page's bounded undo and redo stacks. Entries are
// whole-page snapshots, not diffs. The bottom of the undo stack is the
// seed blank snapshot pushed when the page's surface is created; undo
// never removes it.
type History struct {
	undo []*annot.Snapshot
	redo []*annot.Snapshot
	cap  int
}

func NewHistory(cap int) *History {
	if cap < 2 {
		cap = 2
	}
	return &History{cap: cap}
}

// Push records a new snapshot as the current state and clears the redo
// stack. When the undo stack exceeds its cap the oldest entry above the
// seed is evicted.
func (h *History) Push(s *annot.Snapshot) {
	h.undo = append(h.undo, s)
	if len(h.undo) > h.cap {
		// Keep the seed at the bottom, evict the next-oldest.
		copy(h.undo[1:], h.undo[2:])
		h.undo = h.undo[:len(h.undo)-1]
	}
	h.redo = h.redo[:0]
}

// Seed pushes the baseline snapshot without clearing redo. Only called
// once, at surface creation.
func (h *History) Seed(s *annot.Snapshot) {
	h.undo = append(h.undo[:0], s)
}

func (h *History) CanUndo() bool { return len(h.undo) > 1 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo pops the current top onto the redo stack and returns the new
// top for replay. Returns nil at the floor.
func (h *History) Undo() *annot.Snapshot {
	if !h.CanUndo() {
		return nil
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	return h.undo[len(h.undo)-1]
}

// Redo pops one entry back onto the undo stack and returns it for
// replay. Returns nil when the redo stack is empty.
func (h *History) Redo() *annot.Snapshot {
	if !h.CanRedo() {
		return nil
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)
	return top
}

// Depth returns the undo stack depth, seed included.
func (h *History) Depth() int { return len(h.undo) }
