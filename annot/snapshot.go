package annot

import (
	"encoding/json"
	"fmt"

	"github.com/docmark/docmark/coords"
)

// SnapshotVersion is the current history snapshot format version.
const SnapshotVersion = 1

// Snapshot is a fully serialized photo of one page's entire object set.
// History entries are snapshots, not diffs.
type Snapshot struct {
	Version int       `json:"version"`
	Objects []*Object `json:"objects"`
}

// TakeSnapshot captures the given objects into a snapshot, keeping only
// the persisted attributes of each kind. Transient state (selection,
// provisional drag geometry) never enters history.
func TakeSnapshot(objects []*Object) *Snapshot {
	snap := &Snapshot{Version: SnapshotVersion, Objects: make([]*Object, 0, len(objects))}
	for _, o := range objects {
		snap.Objects = append(snap.Objects, sanitize(o))
	}
	return snap
}

// Restore returns deep copies of the snapshot's objects, ready to be
// loaded into a page store.
func (s *Snapshot) Restore() []*Object {
	out := make([]*Object, 0, len(s.Objects))
	for _, o := range s.Objects {
		out = append(out, o.Clone())
	}
	return out
}

// Encode serializes the snapshot to JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a serialized snapshot, rejecting unknown
// versions. Unknown JSON fields are dropped.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", s.Version)
	}
	return &s, nil
}

// sanitize deep-copies o keeping only the attributes on the persistence
// allow-list for its kind.
func sanitize(o *Object) *Object {
	c := &Object{
		ID:     o.ID,
		Kind:   o.Kind,
		X:      o.X,
		Y:      o.Y,
		W:      o.W,
		H:      o.H,
		Locked: o.Locked,
	}
	switch o.Kind {
	case KindText, KindNote:
		c.Text = o.Text
		c.Color = o.Color
		c.FontFamily = o.FontFamily
		c.FontSize = o.FontSize
	case KindWhiteout:
		c.FillColor = o.FillColor
	case KindHighlight:
		c.FillColor = o.FillColor
		c.CapturedText = o.CapturedText
	case KindUnderline, KindStrike:
		c.Color = o.Color
		c.StrokeWidth = o.StrokeWidth
	case KindArrow:
		c.Color = o.Color
		c.StrokeWidth = o.StrokeWidth
		c.Points = append([]coords.Point(nil), o.Points...)
	case KindRect, KindEllipse:
		c.Color = o.Color
		c.FillColor = o.FillColor
		c.StrokeWidth = o.StrokeWidth
	case KindFreehand:
		c.Color = o.Color
		c.StrokeWidth = o.StrokeWidth
		c.Points = append([]coords.Point(nil), o.Points...)
	case KindStamp, KindImage:
		c.ImageData = append([]byte(nil), o.ImageData...)
		c.ImageMIME = o.ImageMIME
	case KindTextField, KindDate:
		c.FieldName = o.FieldName
		c.Value = o.Value
		c.FontFamily = o.FontFamily
		c.FontSize = o.FontSize
		c.ValidateScript = o.ValidateScript
	case KindCheckbox, KindRadio:
		c.FieldName = o.FieldName
		c.Checked = o.Checked
	case KindDropdown:
		c.FieldName = o.FieldName
		c.Value = o.Value
		c.Options = append([]string(nil), o.Options...)
		c.ValidateScript = o.ValidateScript
	case KindSigField:
		c.FieldName = o.FieldName
	case KindSignature:
		c.ImageData = append([]byte(nil), o.ImageData...)
		c.ImageMIME = o.ImageMIME
		if o.Signature != nil {
			sig := *o.Signature
			c.Signature = &sig
		}
	}
	return c
}
