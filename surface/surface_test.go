package surface

import (
	"errors"
	"fmt"
	"testing"

	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/canvas"
	"github.com/docmark/docmark/config"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	return New("doc:1", canvas.NewStore(), config.Default(), nil)
}

func TestPlacement_CapturesHistory(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolFor(annot.KindText))
	s.PointerDown(canvas.PointerEvent{X: 30, Y: 40})

	if got := len(s.Objects()); got != 1 {
		t.Fatalf("object count = %d, want 1", got)
	}
	if !s.CanUndo() {
		t.Error("placement did not capture a snapshot")
	}
	if s.Tool() != ToolSelect {
		t.Errorf("tool = %q, want select after one-shot placement", s.Tool())
	}
	if sel := s.Store().Selected(); len(sel) != 1 {
		t.Errorf("selected = %v, want the new object", sel)
	}
}

func TestPlacement_FieldToolStaysActive(t *testing.T) {
	s := newTestSurface(t)
	for _, k := range []annot.Kind{annot.KindTextField, annot.KindCheckbox, annot.KindSigField, annot.KindSignature} {
		s.SetTool(ToolFor(k))
		s.PointerDown(canvas.PointerEvent{X: 10, Y: 10})
		if s.Tool() != ToolFor(k) {
			t.Errorf("tool after placing %s = %q, want %q", k, s.Tool(), ToolFor(k))
		}
	}
}

func TestDrag_DiscardsSpecks(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolFor(annot.KindRect))
	s.PointerDown(canvas.PointerEvent{X: 10, Y: 10})
	s.PointerMove(canvas.PointerEvent{X: 13, Y: 12})
	s.PointerUp(canvas.PointerEvent{X: 13, Y: 12})

	if got := len(s.Objects()); got != 0 {
		t.Fatalf("speck survived, %d objects", got)
	}
	if s.CanUndo() {
		t.Error("discarded speck still captured history")
	}
}

func TestDrag_ThinButLongSurvives(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolFor(annot.KindUnderline))
	s.PointerDown(canvas.PointerEvent{X: 10, Y: 100})
	s.PointerMove(canvas.PointerEvent{X: 200, Y: 101})
	s.PointerUp(canvas.PointerEvent{X: 200, Y: 101})

	objs := s.Objects()
	if len(objs) != 1 {
		t.Fatalf("underline discarded; %d objects", len(objs))
	}
	if objs[0].W < 100 {
		t.Errorf("width = %v, want the dragged extent", objs[0].W)
	}
	if !s.CanUndo() {
		t.Error("finalized drag did not capture history")
	}
}

func TestDrag_OneHistoryStep(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolFor(annot.KindFreehand))
	s.PointerDown(canvas.PointerEvent{X: 0, Y: 0})
	for i := 1; i <= 30; i++ {
		s.PointerMove(canvas.PointerEvent{X: float64(i * 3), Y: float64(i * 2)})
	}
	s.PointerUp(canvas.PointerEvent{X: 90, Y: 60})

	if d := s.history.Depth(); d != 2 {
		t.Errorf("history depth = %d, want 2 (seed + one gesture)", d)
	}
	obj := s.Objects()[0]
	if len(obj.Points) < 30 {
		t.Errorf("freehand kept %d points", len(obj.Points))
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	s := newTestSurface(t)
	for i := 0; i < 3; i++ {
		s.SetTool(ToolFor(annot.KindText))
		s.PointerDown(canvas.PointerEvent{X: float64(10 * i), Y: 10})
	}
	if got := len(s.Objects()); got != 3 {
		t.Fatalf("placed %d objects, want 3", got)
	}

	s.Undo()
	s.Undo()
	if got := len(s.Objects()); got != 1 {
		t.Fatalf("after 2 undos: %d objects, want 1", got)
	}
	s.Redo()
	s.Redo()
	if got := len(s.Objects()); got != 3 {
		t.Fatalf("after 2 redos: %d objects, want 3", got)
	}
	if s.CanRedo() {
		t.Error("redo stack should be drained")
	}

	// Replay must not have re-captured itself.
	if d := s.history.Depth(); d != 4 {
		t.Errorf("history depth = %d, want 4 (seed + 3 placements)", d)
	}
}

func TestUndo_FloorIsSeed(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolFor(annot.KindText))
	s.PointerDown(canvas.PointerEvent{X: 5, Y: 5})
	for i := 0; i < 10; i++ {
		s.Undo()
	}
	if got := len(s.Objects()); got != 0 {
		t.Errorf("floor state has %d objects, want 0", got)
	}
	if s.CanUndo() {
		t.Error("CanUndo at the floor")
	}
}

func TestDeleteSelected_SkipsLocked(t *testing.T) {
	s := newTestSurface(t)
	locked := &annot.Object{ID: "locked", Kind: annot.KindSignature, W: 10, H: 10, Locked: true}
	free := &annot.Object{ID: "free", Kind: annot.KindRect, X: 50, W: 10, H: 10}
	s.Store().Add(locked)
	s.Store().Add(free)
	s.Store().Select("locked")
	s.Store().Select("free")

	if removed := s.DeleteSelected(); removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	if _, ok := s.Store().Get("locked"); !ok {
		t.Error("locked object was deleted")
	}
	if _, ok := s.Store().Get("free"); ok {
		t.Error("unlocked object survived")
	}
}

func TestSetFieldName_RejectsDuplicates(t *testing.T) {
	s := newTestSurface(t)
	s.Store().Add(&annot.Object{ID: "f1", Kind: annot.KindTextField})
	taken := map[string]string{"name": "other-object"}
	s.FieldNameInUse = func(name, exceptID string) bool {
		owner, ok := taken[name]
		return ok && owner != exceptID
	}

	if err := s.SetFieldName("f1", "name"); !errors.Is(err, ErrDuplicateFieldName) {
		t.Errorf("duplicate accepted: %v", err)
	}
	if err := s.SetFieldName("f1", "email"); err != nil {
		t.Errorf("unique name rejected: %v", err)
	}
	o, _ := s.Store().Get("f1")
	if o.FieldName != "email" {
		t.Errorf("field name = %q", o.FieldName)
	}
}

func TestFillMode_ToggleAndLock(t *testing.T) {
	s := newTestSurface(t)
	s.Store().Add(&annot.Object{ID: "cb", Kind: annot.KindCheckbox, W: 16, H: 16, FieldName: "agree"})
	s.Store().Add(&annot.Object{ID: "tf", Kind: annot.KindTextField, X: 40, W: 150, H: 28, FieldName: "name"})
	s.SetMode(ModeFill)

	s.PointerDown(canvas.PointerEvent{X: 8, Y: 8})
	cb, _ := s.Store().Get("cb")
	if !cb.Checked {
		t.Error("fill-mode click did not toggle checkbox")
	}

	req := s.PointerDown(canvas.PointerEvent{X: 50, Y: 10})
	if req == nil || req.ObjectID != "tf" {
		t.Fatalf("fill request = %+v, want textfield editor", req)
	}
	if err := s.CommitValue("tf", "Ada"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	tf, _ := s.Store().Get("tf")
	if tf.Value != "Ada" || !tf.Locked {
		t.Errorf("field after commit = %+v, want value Ada and locked", tf)
	}
	if err := s.CommitValue("tf", "Bob"); !errors.Is(err, ErrLocked) {
		t.Errorf("locked field accepted a second commit: %v", err)
	}
}

func TestEditMode_CommitDoesNotLock(t *testing.T) {
	s := newTestSurface(t)
	s.Store().Add(&annot.Object{ID: "tf", Kind: annot.KindTextField, FieldName: "name"})
	if err := s.CommitValue("tf", "default"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	o, _ := s.Store().Get("tf")
	if o.Locked {
		t.Error("edit-mode commit locked the field")
	}
}

type rejectingValidator struct{ called bool }

func (v *rejectingValidator) Validate(script, fieldName, value string) error {
	v.called = true
	if value == "bad" {
		return fmt.Errorf("rejected by script")
	}
	return nil
}

func TestCommitValue_ScriptValidation(t *testing.T) {
	s := newTestSurface(t)
	v := &rejectingValidator{}
	s.Validator = v
	s.Store().Add(&annot.Object{ID: "tf", Kind: annot.KindTextField, FieldName: "n", ValidateScript: "value.length > 0"})

	if err := s.CommitValue("tf", "bad"); err == nil {
		t.Fatal("script rejection ignored")
	}
	o, _ := s.Store().Get("tf")
	if o.Value != "" {
		t.Error("rejected commit mutated the object")
	}
	if err := s.CommitValue("tf", "good"); err != nil {
		t.Fatalf("valid commit failed: %v", err)
	}
	if !v.called {
		t.Error("validator never ran")
	}
}

func TestSelectOption(t *testing.T) {
	s := newTestSurface(t)
	s.Store().Add(&annot.Object{ID: "dd", Kind: annot.KindDropdown, FieldName: "color", Options: []string{"red", "blue"}})
	if err := s.SelectOption("dd", "green"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("unknown option accepted: %v", err)
	}
	if err := s.SelectOption("dd", "blue"); err != nil {
		t.Fatalf("select option: %v", err)
	}
	o, _ := s.Store().Get("dd")
	if o.Value != "blue" {
		t.Errorf("value = %q", o.Value)
	}
}

func TestPlaceSignature_ReplacesInPlace(t *testing.T) {
	s := newTestSurface(t)
	s.Store().Add(&annot.Object{ID: "sig", Kind: annot.KindSigField, X: 10, Y: 20, W: 180, H: 48, FieldName: "signhere"})
	s.SetMode(ModeFill)

	meta := annot.SignatureMeta{SignerName: "Ada Lovelace", IntentAccepted: true, ConsentAccepted: true}
	if err := s.PlaceSignature("sig", []byte{0x89, 'P', 'N', 'G'}, "image/png", meta); err != nil {
		t.Fatalf("place signature: %v", err)
	}
	o, _ := s.Store().Get("sig")
	if o.Kind != annot.KindSignature || !o.Locked {
		t.Errorf("object after signing = kind %s locked %v", o.Kind, o.Locked)
	}
	if o.X != 10 || o.Y != 20 || o.W != 180 || o.H != 48 {
		t.Error("signature moved during replacement")
	}
	if o.Signature == nil || o.Signature.SignerName != "Ada Lovelace" {
		t.Error("audit metadata lost")
	}
	if err := s.PlaceSignature("sig", nil, "", meta); err == nil {
		t.Error("re-signing a signed field succeeded")
	}
}

func TestMovingLockedObjectFails(t *testing.T) {
	s := newTestSurface(t)
	s.Store().Add(&annot.Object{ID: "sig", Kind: annot.KindSignature, X: 10, Y: 10, W: 50, H: 20, Locked: true})
	s.SetMode(ModeEdit) // re-applies policy to existing objects

	s.PointerDown(canvas.PointerEvent{X: 20, Y: 15})
	s.PointerMove(canvas.PointerEvent{X: 80, Y: 80})
	s.PointerUp(canvas.PointerEvent{X: 80, Y: 80})

	o, _ := s.Store().Get("sig")
	if o.X != 10 || o.Y != 10 {
		t.Errorf("locked object moved to (%v,%v)", o.X, o.Y)
	}
	if sel := s.Store().Selected(); len(sel) != 1 || sel[0] != "sig" {
		t.Errorf("locked object should remain selectable, selected = %v", sel)
	}
}

func TestMoveGesture_SingleHistoryStep(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolFor(annot.KindRect))
	s.PointerDown(canvas.PointerEvent{X: 10, Y: 10})
	s.PointerMove(canvas.PointerEvent{X: 60, Y: 60})
	s.PointerUp(canvas.PointerEvent{X: 60, Y: 60})
	depth := s.history.Depth()

	s.SetTool(ToolSelect)
	s.PointerDown(canvas.PointerEvent{X: 30, Y: 30})
	for i := 0; i < 20; i++ {
		s.PointerMove(canvas.PointerEvent{X: 30 + float64(i), Y: 30})
	}
	s.PointerUp(canvas.PointerEvent{X: 49, Y: 30})

	if d := s.history.Depth(); d != depth+1 {
		t.Errorf("move gesture produced %d history steps, want 1", d-depth)
	}
}

func TestPolicy_Idempotent(t *testing.T) {
	for _, k := range annot.Kinds {
		for _, locked := range []bool{false, true} {
			for _, mode := range []Mode{ModeEdit, ModeFill} {
				for _, tool := range []Tool{ToolSelect, ToolFor(annot.KindRect)} {
					p1 := PolicyFor(k, locked, mode, tool)
					p2 := PolicyFor(k, locked, mode, tool)
					if p1 != p2 {
						t.Fatalf("policy not stable for (%s,%v,%s,%s)", k, locked, mode, tool)
					}
				}
			}
		}
	}
}
