package annot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/docmark/docmark/coords"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	objects := []*Object{
		{
			ID: NewID(), Kind: KindText, X: 10, Y: 20, W: 100, H: 18,
			Text: "hello", Color: "#ff0000", FontFamily: "serif", FontSize: 14,
		},
		{
			ID: NewID(), Kind: KindFreehand, X: 5, Y: 5, W: 40, H: 40,
			Color: "black", StrokeWidth: 2,
			Points: []coords.Point{{X: 5, Y: 5}, {X: 45, Y: 45}},
		},
		{
			ID: NewID(), Kind: KindCheckbox, X: 0, Y: 0, W: 16, H: 16,
			FieldName: "agree", Checked: true,
		},
	}

	snap := TakeSnapshot(objects)
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(snap.Objects, decoded.Restore()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_AllowList(t *testing.T) {
	// A checkbox must not persist text-kind attributes, and a text
	// object must not persist field state.
	checkbox := &Object{
		ID: "cb", Kind: KindCheckbox, FieldName: "agree", Checked: true,
		Text: "stray", FontFamily: "serif", ImageData: []byte{1, 2},
	}
	text := &Object{
		ID: "tx", Kind: KindText, Text: "hi",
		FieldName: "stray", Checked: true, Options: []string{"a"},
	}

	snap := TakeSnapshot([]*Object{checkbox, text})
	cb, tx := snap.Objects[0], snap.Objects[1]
	if cb.Text != "" || cb.FontFamily != "" || cb.ImageData != nil {
		t.Errorf("checkbox kept disallowed attributes: %+v", cb)
	}
	if cb.FieldName != "agree" || !cb.Checked {
		t.Errorf("checkbox lost its own attributes: %+v", cb)
	}
	if tx.FieldName != "" || tx.Checked || tx.Options != nil {
		t.Errorf("text kept disallowed attributes: %+v", tx)
	}
}

func TestSnapshot_IsolatedFromLiveObjects(t *testing.T) {
	obj := &Object{ID: "fh", Kind: KindFreehand, Points: []coords.Point{{X: 1, Y: 1}}}
	snap := TakeSnapshot([]*Object{obj})
	obj.Points[0].X = 99
	obj.X = 99
	if snap.Objects[0].Points[0].X != 1 || snap.Objects[0].X != 0 {
		t.Error("snapshot aliases live object state")
	}
}

func TestDecodeSnapshot_BadVersion(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"version":99,"objects":[]}`)); err == nil {
		t.Fatal("expected version error")
	}
}

func TestKindClassification(t *testing.T) {
	fieldKinds := map[Kind]bool{
		KindTextField: true, KindCheckbox: true, KindRadio: true,
		KindDropdown: true, KindDate: true, KindSigField: true,
	}
	dragKinds := map[Kind]bool{
		KindWhiteout: true, KindHighlight: true, KindUnderline: true,
		KindStrike: true, KindRect: true, KindEllipse: true,
		KindArrow: true, KindFreehand: true,
	}
	for _, k := range Kinds {
		if k.IsField() != fieldKinds[k] {
			t.Errorf("IsField(%s) = %v", k, k.IsField())
		}
		if k.IsDragBuilt() != dragKinds[k] {
			t.Errorf("IsDragBuilt(%s) = %v", k, k.IsDragBuilt())
		}
	}
}
