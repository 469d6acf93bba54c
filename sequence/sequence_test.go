package sequence

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/docmark/docmark/registry"
)

func loadDocs(t *testing.T, pageCounts ...int) (*registry.Registry, []*registry.Document) {
	t.Helper()
	r := registry.New()
	docs := make([]*registry.Document, 0, len(pageCounts))
	for i, n := range pageCounts {
		doc, err := r.Register("doc.pdf", []byte{byte(i + 1)}, n)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		docs = append(docs, doc)
	}
	return r, docs
}

func ids(pages []ViewPage) []string {
	out := make([]string, len(pages))
	for i, vp := range pages {
		out[i] = vp.ID
	}
	return out
}

func TestLoadAppend_UniqueIDs(t *testing.T) {
	_, docs := loadDocs(t, 3, 2)
	s := New()
	s.Load(docs[0])
	s.Append(docs[1])
	if s.Len() != 5 {
		t.Fatalf("len = %d, want 5", s.Len())
	}
	seen := map[string]bool{}
	for _, id := range ids(s.Pages()) {
		if seen[id] {
			t.Fatalf("duplicate view page id %q", id)
		}
		seen[id] = true
	}
}

func TestLoad_ReplacesSequence(t *testing.T) {
	_, docs := loadDocs(t, 3, 2)
	s := New()
	s.Load(docs[0])
	s.Load(docs[1])
	if s.Len() != 2 {
		t.Fatalf("len after reload = %d, want 2", s.Len())
	}
	for _, vp := range s.Pages() {
		if vp.DocumentID != docs[1].ID {
			t.Errorf("page %q still references replaced document", vp.ID)
		}
	}
}

func TestReorder(t *testing.T) {
	_, docs := loadDocs(t, 4)
	s := New()
	s.Load(docs[0])
	before := ids(s.Pages())

	// Move last page before the first.
	s.Reorder(before[3], before[0])
	want := []string{before[3], before[0], before[1], before[2]}
	if diff := cmp.Diff(want, ids(s.Pages())); diff != "" {
		t.Errorf("reorder mismatch (-want +got):\n%s", diff)
	}

	// Move forward past the removal point.
	s.Reorder(before[3], before[2])
	want = []string{before[0], before[1], before[3], before[2]}
	if diff := cmp.Diff(want, ids(s.Pages())); diff != "" {
		t.Errorf("forward reorder mismatch (-want +got):\n%s", diff)
	}
}

func TestReorder_NoOps(t *testing.T) {
	_, docs := loadDocs(t, 3)
	s := New()
	s.Load(docs[0])
	before := ids(s.Pages())

	s.Reorder(before[0], before[0])
	s.Reorder("ghost", before[1])
	s.Reorder(before[1], "ghost")
	if diff := cmp.Diff(before, ids(s.Pages())); diff != "" {
		t.Errorf("no-op reorder changed sequence (-want +got):\n%s", diff)
	}
}

func TestDelete(t *testing.T) {
	_, docs := loadDocs(t, 5)
	s := New()
	s.Load(docs[0])
	before := ids(s.Pages())

	removed := s.Delete(map[string]bool{before[1]: true, before[3]: true, "ghost": true})
	if diff := cmp.Diff([]string{before[1], before[3]}, removed); diff != "" {
		t.Errorf("removed ids mismatch (-want +got):\n%s", diff)
	}
	want := []string{before[0], before[2], before[4]}
	if diff := cmp.Diff(want, ids(s.Pages())); diff != "" {
		t.Errorf("sequence after delete (-want +got):\n%s", diff)
	}
}

func TestRotate_Wraps(t *testing.T) {
	_, docs := loadDocs(t, 2)
	s := New()
	s.Load(docs[0])
	id := s.Pages()[0].ID

	target := map[string]bool{id: true}
	for i, want := range []int{90, 180, 270, 0} {
		s.Rotate(target)
		got, _ := s.Get(id)
		if got.Rotation != want {
			t.Fatalf("rotation after %d turns = %d, want %d", i+1, got.Rotation, want)
		}
	}
	other, _ := s.Get(s.Pages()[1].ID)
	if other.Rotation != 0 {
		t.Errorf("untargeted page rotated to %d", other.Rotation)
	}
}

func TestDuplicate(t *testing.T) {
	_, docs := loadDocs(t, 2)
	s := New()
	s.Load(docs[0])
	orig := s.Pages()[0]

	dup, ok := s.Duplicate(orig.ID)
	if !ok {
		t.Fatal("duplicate failed")
	}
	if dup.ID == orig.ID {
		t.Error("duplicate shares id with original")
	}
	if dup.DocumentID != orig.DocumentID || dup.SourcePage != orig.SourcePage {
		t.Error("duplicate does not reference the same source page")
	}
	if got := s.Pages()[1].ID; got != dup.ID {
		t.Errorf("duplicate not inserted after original, position 1 holds %q", got)
	}
	if _, ok := s.Duplicate("ghost"); ok {
		t.Error("duplicating an unknown id succeeded")
	}
}

func TestExtractSubset_Pure(t *testing.T) {
	_, docs := loadDocs(t, 4)
	s := New()
	s.Load(docs[0])
	before := ids(s.Pages())
	s.Rotate(map[string]bool{before[2]: true})

	sub := s.ExtractSubset(map[string]bool{before[0]: true, before[2]: true})
	if diff := cmp.Diff([]string{before[0], before[2]}, ids(sub)); diff != "" {
		t.Errorf("subset ids (-want +got):\n%s", diff)
	}
	if sub[1].Rotation != 90 {
		t.Errorf("subset lost rotation, got %d", sub[1].Rotation)
	}
	if s.Len() != 4 {
		t.Error("extract mutated the live sequence")
	}
}

func TestSplitByRanges(t *testing.T) {
	_, docs := loadDocs(t, 5)
	s := New()
	s.Load(docs[0])
	before := ids(s.Pages())

	parts := s.SplitByRanges([]Range{{From: 1, To: 2}, {From: 4, To: 9}, {From: 3, To: 2}})
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}
	if diff := cmp.Diff([]string{before[0], before[1]}, ids(parts[0])); diff != "" {
		t.Errorf("part 0 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{before[3], before[4]}, ids(parts[1])); diff != "" {
		t.Errorf("clamped part 1 (-want +got):\n%s", diff)
	}
	if len(parts[2]) != 0 {
		t.Errorf("inverted range produced %d pages", len(parts[2]))
	}
}

func TestReorder_IdentifierStable(t *testing.T) {
	_, docs := loadDocs(t, 4)
	s := New()
	s.Load(docs[0])
	before := ids(s.Pages())

	s.Reorder(before[0], before[3])
	s.Reorder(before[2], before[1])
	s.Reorder(before[3], before[0])

	after := map[string]bool{}
	for _, id := range ids(s.Pages()) {
		after[id] = true
	}
	for _, id := range before {
		if !after[id] {
			t.Errorf("id %q lost across reorders", id)
		}
	}
}
