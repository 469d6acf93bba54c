package docwriter

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Memory is an in-memory Writer that records every command it
// receives. It backs tests and headless embedding; Save serializes the
// recorded document as JSON.
type Memory struct {
	// PageSize is the size reported for every copied page before
	// rotation. Defaults to US Letter.
	PageSize Rect

	Sources     []*MemorySource
	Pages       []*MemoryPage
	Attachments []Attachment
	Info        Info

	// PageCountFn, when set, reports the page count of opened
	// sources; zero or unset accepts any page index.
	PageCountFn func(data []byte) int

	fieldNames map[string]bool
	// FailFields forces field-creation failures for specific names,
	// exercising the static-fallback path.
	FailFields map[string]bool
}

// MemorySource is an opened source document.
type MemorySource struct {
	Data      []byte
	PageTotal int
}

func (s *MemorySource) PageCount() int { return s.PageTotal }

// Attachment is one embedded side-channel file.
type Attachment struct {
	Name string
	MIME string
	Data []byte
}

// Recorded drawing commands.
type (
	TextOp struct {
		Line  string
		X, Y  float64
		Style TextStyle
	}
	ShapeOp struct {
		Kind  string // "rect", "ellipse", "line"
		Rect  Rect
		X2,
		Y2 float64
		Style ShapeStyle
	}
	ImageOp struct {
		Data []byte
		MIME string
		Rect Rect
	}
	FieldOp struct {
		Type    string // "text", "checkbox", "radio", "choice"
		Name    string
		Rect    Rect
		Value   string
		Checked bool
		Options []string
	}
)

// MemoryPage is one recorded output page.
type MemoryPage struct {
	W, H     float64
	Rotation int
	SrcIndex int

	Texts  []TextOp
	Shapes []ShapeOp
	Images []ImageOp
	Fields []FieldOp

	parent *Memory
}

// NewMemory returns an empty recording writer.
func NewMemory() *Memory {
	return &Memory{
		PageSize:   Rect{W: 612, H: 792},
		fieldNames: make(map[string]bool),
		FailFields: make(map[string]bool),
	}
}

func (m *Memory) OpenExisting(data []byte) (Source, error) {
	if len(data) == 0 {
		return nil, errors.New("docwriter: empty source document")
	}
	total := 0
	if m.PageCountFn != nil {
		total = m.PageCountFn(data)
	}
	src := &MemorySource{Data: append([]byte(nil), data...), PageTotal: total}
	m.Sources = append(m.Sources, src)
	return src, nil
}

func (m *Memory) CopyPage(src Source, pageIndex int, rotation int) (Page, error) {
	ms, ok := src.(*MemorySource)
	if !ok {
		return nil, errors.New("docwriter: foreign source")
	}
	if pageIndex < 0 || (ms.PageTotal > 0 && pageIndex >= ms.PageTotal) {
		return nil, fmt.Errorf("docwriter: page %d out of range [0,%d)", pageIndex, ms.PageTotal)
	}
	w, h := m.PageSize.W, m.PageSize.H
	if rotation == 90 || rotation == 270 {
		w, h = h, w
	}
	page := &MemoryPage{W: w, H: h, Rotation: rotation, SrcIndex: pageIndex, parent: m}
	m.Pages = append(m.Pages, page)
	return page, nil
}

func (m *Memory) Attach(data []byte, name, mime string) error {
	m.Attachments = append(m.Attachments, Attachment{
		Name: name, MIME: mime, Data: append([]byte(nil), data...),
	})
	return nil
}

func (m *Memory) SetInfo(info Info) error {
	m.Info = info
	return nil
}

func (m *Memory) Save() ([]byte, error) {
	return json.Marshal(struct {
		Pages       []*MemoryPage
		Attachments []Attachment
		Info        Info
	}{m.Pages, m.Attachments, m.Info})
}

func (p *MemoryPage) Size() (float64, float64) { return p.W, p.H }

func (p *MemoryPage) DrawText(line string, x, y float64, style TextStyle) error {
	p.Texts = append(p.Texts, TextOp{Line: line, X: x, Y: y, Style: style})
	return nil
}

func (p *MemoryPage) DrawRect(r Rect, style ShapeStyle) error {
	p.Shapes = append(p.Shapes, ShapeOp{Kind: "rect", Rect: r, Style: style})
	return nil
}

func (p *MemoryPage) DrawEllipse(r Rect, style ShapeStyle) error {
	p.Shapes = append(p.Shapes, ShapeOp{Kind: "ellipse", Rect: r, Style: style})
	return nil
}

func (p *MemoryPage) DrawLine(x1, y1, x2, y2 float64, style ShapeStyle) error {
	p.Shapes = append(p.Shapes, ShapeOp{
		Kind: "line", Rect: Rect{X: x1, Y: y1}, X2: x2, Y2: y2, Style: style,
	})
	return nil
}

func (p *MemoryPage) DrawImage(data []byte, mime string, r Rect) error {
	if len(data) == 0 {
		return errors.New("docwriter: empty image")
	}
	p.Images = append(p.Images, ImageOp{Data: append([]byte(nil), data...), MIME: mime, Rect: r})
	return nil
}

func (p *MemoryPage) addField(op FieldOp) error {
	if p.parent.FailFields[op.Name] {
		return fmt.Errorf("docwriter: field %q rejected", op.Name)
	}
	if p.parent.fieldNames[op.Name] && op.Type != "radio" {
		return fmt.Errorf("docwriter: field name %q already exists", op.Name)
	}
	p.parent.fieldNames[op.Name] = true
	p.Fields = append(p.Fields, op)
	return nil
}

func (p *MemoryPage) CreateTextField(name string, r Rect, opts TextFieldOpts) error {
	return p.addField(FieldOp{Type: "text", Name: name, Rect: r, Value: opts.Value})
}

func (p *MemoryPage) CreateCheckbox(name string, r Rect, checked bool) error {
	return p.addField(FieldOp{Type: "checkbox", Name: name, Rect: r, Checked: checked})
}

func (p *MemoryPage) CreateRadio(name string, r Rect, checked bool, onState string) error {
	return p.addField(FieldOp{Type: "radio", Name: name, Rect: r, Checked: checked, Value: onState})
}

func (p *MemoryPage) CreateChoice(name string, r Rect, options []string, value string) error {
	return p.addField(FieldOp{Type: "choice", Name: name, Rect: r, Options: options, Value: value})
}
