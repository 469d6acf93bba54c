// Package sequence maintains the ordered, mutable view of pages drawn
// from one or more source documents. Every view page is addressed by a
// stable identifier that survives reorders, so per-page state keyed by
// that identifier is never silently swapped between pages.
package sequence

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/docmark/docmark/registry"
)

// ViewPage is one slot in the editable page sequence.
type ViewPage struct {
	ID         string
	DocumentID string
	SourcePage int // 1-based page number within the source document
	Rotation   int // degrees, one of 0/90/180/270
}

// Range is a half-open-free, inclusive 1-based page range over the
// current sequence positions.
type Range struct {
	From, To int
}

// Sequence is the ordered list of view pages. Mutations are synchronous
// and atomic from the caller's perspective.
type Sequence struct {
	pages []ViewPage
}

func New() *Sequence { return &Sequence{} }

// Load replaces the entire sequence with one entry per page of doc, in
// source order, rotation 0.
func (s *Sequence) Load(doc *registry.Document) []ViewPage {
	s.pages = s.pages[:0]
	return s.Append(doc)
}

// Append adds one entry per page of a newly registered document to the
// end of the sequence. Existing entries and identifiers are untouched.
func (s *Sequence) Append(doc *registry.Document) []ViewPage {
	added := make([]ViewPage, 0, doc.PageCount)
	for n := 1; n <= doc.PageCount; n++ {
		vp := ViewPage{
			ID:         fmt.Sprintf("%s:%d", doc.ID, n),
			DocumentID: doc.ID,
			SourcePage: n,
		}
		s.pages = append(s.pages, vp)
		added = append(added, vp)
	}
	return added
}

// Duplicate inserts a copy of the page with the given id immediately
// after it, under a fresh random-suffixed identifier. Returns the new
// page and true, or false if the id is absent.
func (s *Sequence) Duplicate(id string) (ViewPage, bool) {
	i := s.index(id)
	if i < 0 {
		return ViewPage{}, false
	}
	dup := s.pages[i]
	dup.ID = fmt.Sprintf("%s:%s:%d", dup.DocumentID, randSuffix(), dup.SourcePage)
	s.pages = append(s.pages, ViewPage{})
	copy(s.pages[i+2:], s.pages[i+1:])
	s.pages[i+1] = dup
	return dup, true
}

// Reorder removes the entry with fromID and reinserts it immediately
// before the entry currently holding toID. Unknown ids and from == to
// are silent no-ops; stale drag events must not crash the editor.
func (s *Sequence) Reorder(fromID, toID string) {
	if fromID == toID {
		return
	}
	from := s.index(fromID)
	to := s.index(toID)
	if from < 0 || to < 0 {
		return
	}
	moved := s.pages[from]
	s.pages = append(s.pages[:from], s.pages[from+1:]...)
	// Recompute: removal above may have shifted the target slot.
	to = s.index(toID)
	s.pages = append(s.pages, ViewPage{})
	copy(s.pages[to+1:], s.pages[to:])
	s.pages[to] = moved
}

// Delete removes every entry whose id is in ids and returns the removed
// ids in sequence order. Releasing per-page annotation state for the
// removed ids is the caller's contract, not a side effect here.
func (s *Sequence) Delete(ids map[string]bool) []string {
	if len(ids) == 0 {
		return nil
	}
	var removed []string
	kept := s.pages[:0]
	for _, vp := range s.pages {
		if ids[vp.ID] {
			removed = append(removed, vp.ID)
			continue
		}
		kept = append(kept, vp)
	}
	s.pages = kept
	return removed
}

// Rotate increments the rotation of each matching entry by 90 degrees,
// modulo 360. Unknown ids are ignored.
func (s *Sequence) Rotate(ids map[string]bool) {
	for i := range s.pages {
		if ids[s.pages[i].ID] {
			s.pages[i].Rotation = (s.pages[i].Rotation + 90) % 360
		}
	}
}

// ExtractSubset returns a new subsequence holding the pages whose ids
// are in ids, preserving order, rotation and identity. The live
// sequence is not altered.
func (s *Sequence) ExtractSubset(ids map[string]bool) []ViewPage {
	var out []ViewPage
	for _, vp := range s.pages {
		if ids[vp.ID] {
			out = append(out, vp)
		}
	}
	return out
}

// SplitByRanges returns one subsequence per 1-based position range.
// Ranges are clamped to the sequence bounds; empty or inverted ranges
// yield empty subsequences. The live sequence is not altered.
func (s *Sequence) SplitByRanges(ranges []Range) [][]ViewPage {
	out := make([][]ViewPage, 0, len(ranges))
	for _, r := range ranges {
		from := r.From
		if from < 1 {
			from = 1
		}
		to := r.To
		if to > len(s.pages) {
			to = len(s.pages)
		}
		var part []ViewPage
		for i := from; i <= to; i++ {
			part = append(part, s.pages[i-1])
		}
		out = append(out, part)
	}
	return out
}

// Pages returns a copy of the current sequence.
func (s *Sequence) Pages() []ViewPage {
	return append([]ViewPage(nil), s.pages...)
}

// Get returns the page with the given id.
func (s *Sequence) Get(id string) (ViewPage, bool) {
	if i := s.index(id); i >= 0 {
		return s.pages[i], true
	}
	return ViewPage{}, false
}

// Len returns the number of view pages.
func (s *Sequence) Len() int { return len(s.pages) }

func (s *Sequence) index(id string) int {
	for i, vp := range s.pages {
		if vp.ID == id {
			return i
		}
	}
	return -1
}

func randSuffix() string {
	var b [4]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
