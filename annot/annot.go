// Package annot defines the annotation object model: a tagged union of
// overlay object kinds plus the versioned snapshot form used for
// per-page undo history.
package annot

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/docmark/docmark/coords"
)

// Kind discriminates annotation objects. Dispatch switches over Kind so
// adding a kind is a compile-visible change, not a type inspection.
type Kind string

const (
	KindText      Kind = "text"
	KindWhiteout  Kind = "whiteout"
	KindHighlight Kind = "highlight"
	KindUnderline Kind = "underline"
	KindStrike    Kind = "strike"
	KindRect      Kind = "rect"
	KindEllipse   Kind = "ellipse"
	KindArrow     Kind = "arrow"
	KindNote      Kind = "note"
	KindStamp     Kind = "stamp"
	KindImage     Kind = "image"
	KindFreehand  Kind = "freehand"
	KindTextField Kind = "textfield"
	KindCheckbox  Kind = "checkbox"
	KindRadio     Kind = "radio"
	KindDropdown  Kind = "dropdown"
	KindDate      Kind = "date"
	KindSignature Kind = "signature"
	KindSigField  Kind = "sigfield"
)

// Kinds lists every annotation kind.
var Kinds = []Kind{
	KindText, KindWhiteout, KindHighlight, KindUnderline, KindStrike,
	KindRect, KindEllipse, KindArrow, KindNote, KindStamp, KindImage,
	KindFreehand, KindTextField, KindCheckbox, KindRadio, KindDropdown,
	KindDate, KindSignature, KindSigField,
}

// IsField reports whether the kind carries a field name addressable by
// bulk fill and synthesized as an interactive field at export.
func (k Kind) IsField() bool {
	switch k {
	case KindTextField, KindCheckbox, KindRadio, KindDropdown, KindDate, KindSigField:
		return true
	}
	return false
}

// IsDragBuilt reports whether the kind is built by a pointer drag
// (provisional while dragging, finalized on pointer-up) rather than
// placed fully formed by a single pointer-down.
func (k Kind) IsDragBuilt() bool {
	switch k {
	case KindWhiteout, KindHighlight, KindUnderline, KindStrike,
		KindRect, KindEllipse, KindArrow, KindFreehand:
		return true
	}
	return false
}

// SignatureMeta records who signed and under what consent. It travels
// with the signature image and becomes an audit entry at export.
type SignatureMeta struct {
	SignerName      string    `json:"signerName"`
	SignerEmail     string    `json:"signerEmail,omitempty"`
	IntentAccepted  bool      `json:"intentAccepted"`
	ConsentAccepted bool      `json:"consentAccepted"`
	SignedAt        time.Time `json:"signedAt"`
}

// Object is one overlay annotation. Geometry is in canvas pixels at the
// current display scale, origin top-left. An object is owned by exactly
// one page's surface and never shared across pages.
type Object struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	Locked bool `json:"locked,omitempty"`

	// Style.
	Color       string  `json:"color,omitempty"`
	FillColor   string  `json:"fillColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	FontFamily  string  `json:"fontFamily,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`

	// Content. Text and note content may be markdown; the compositor
	// flattens it to plain lines before drawing.
	Text         string         `json:"text,omitempty"`
	Points       []coords.Point `json:"points,omitempty"`
	ImageData    []byte         `json:"imageData,omitempty"`
	ImageMIME    string         `json:"imageMime,omitempty"`
	CapturedText string         `json:"capturedText,omitempty"`

	// Form fields.
	FieldName      string         `json:"fieldName,omitempty"`
	Value          string         `json:"value,omitempty"`
	Checked        bool           `json:"checked,omitempty"`
	Options        []string       `json:"options,omitempty"`
	ValidateScript string         `json:"validateScript,omitempty"`
	Signature      *SignatureMeta `json:"signature,omitempty"`
}

// Bounds returns the object's canvas-space bounding box.
func (o *Object) Bounds() coords.Rect {
	return coords.Rect{X: o.X, Y: o.Y, W: o.W, H: o.H}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	c := *o
	if o.Points != nil {
		c.Points = append([]coords.Point(nil), o.Points...)
	}
	if o.ImageData != nil {
		c.ImageData = append([]byte(nil), o.ImageData...)
	}
	if o.Options != nil {
		c.Options = append([]string(nil), o.Options...)
	}
	if o.Signature != nil {
		sig := *o.Signature
		c.Signature = &sig
	}
	return &c
}

// NewID returns a fresh annotation object identifier.
func NewID() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
