package surface

import (
	"testing"

	"github.com/docmark/docmark/annot"
)

func snapWith(n int) *annot.Snapshot {
	objs := make([]*annot.Object, n)
	for i := range objs {
		objs[i] = &annot.Object{ID: annot.NewID(), Kind: annot.KindRect}
	}
	return annot.TakeSnapshot(objs)
}

func TestHistory_Floor(t *testing.T) {
	h := NewHistory(50)
	h.Seed(snapWith(0))
	if h.CanUndo() {
		t.Error("fresh history should not allow undo")
	}
	for i := 0; i < 5; i++ {
		if got := h.Undo(); got != nil {
			t.Fatal("undo below the seed returned a snapshot")
		}
	}
	if h.Depth() != 1 {
		t.Errorf("depth = %d, want 1", h.Depth())
	}
}

func TestHistory_UndoRedoInverse(t *testing.T) {
	h := NewHistory(50)
	h.Seed(snapWith(0))
	const n = 7
	for i := 1; i <= n; i++ {
		h.Push(snapWith(i))
	}
	for i := 0; i < n; i++ {
		if h.Undo() == nil {
			t.Fatalf("undo %d failed", i)
		}
	}
	if h.CanUndo() {
		t.Error("expected to be at the floor")
	}
	var last *annot.Snapshot
	for i := 0; i < n; i++ {
		last = h.Redo()
		if last == nil {
			t.Fatalf("redo %d failed", i)
		}
	}
	if len(last.Objects) != n {
		t.Errorf("final state has %d objects, want %d", len(last.Objects), n)
	}
	if h.CanRedo() {
		t.Error("redo stack should be drained")
	}
}

func TestHistory_PushClearsRedo(t *testing.T) {
	h := NewHistory(50)
	h.Seed(snapWith(0))
	h.Push(snapWith(1))
	h.Push(snapWith(2))
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo available")
	}
	h.Push(snapWith(3))
	if h.CanRedo() {
		t.Error("new mutation must clear the redo stack")
	}
}

func TestHistory_CapEvictsOldestAboveSeed(t *testing.T) {
	h := NewHistory(5)
	h.Seed(snapWith(0))
	for i := 1; i <= 10; i++ {
		h.Push(snapWith(i))
	}
	if h.Depth() != 5 {
		t.Fatalf("depth = %d, want 5", h.Depth())
	}
	// Undo to the floor: the bottom must still be the blank seed.
	var bottom *annot.Snapshot
	for h.CanUndo() {
		bottom = h.Undo()
	}
	if len(bottom.Objects) != 0 {
		t.Errorf("seed was evicted; bottom has %d objects", len(bottom.Objects))
	}
}
