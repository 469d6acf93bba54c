// Package registry holds the byte buffers and page counts of every source
// document loaded into an editing session. Buffers are immutable once
// registered; exports read them fresh.
package registry

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrEmptyDocument = errors.New("registry: empty document buffer")
	ErrUnknownID     = errors.New("registry: unknown document id")
)

// Document is one loaded source document.
type Document struct {
	ID          string
	Data        []byte
	PageCount   int
	DisplayName string
}

// Hash returns the hex content fingerprint of the document buffer.
func (d *Document) Hash() string {
	sum := blake2b.Sum256(d.Data)
	return hex.EncodeToString(sum[:])
}

// Registry owns every document of one editing session. It is not safe
// for concurrent mutation; the editor mutates it from a single goroutine.
type Registry struct {
	docs  map[string]*Document
	order []string
	seq   int
}

func New() *Registry {
	return &Registry{docs: make(map[string]*Document)}
}

// Register stores a document buffer and returns its descriptor. The ID is
// an 8-byte content fingerprint plus a registration ordinal, so loading
// the same bytes twice yields distinct, stable identifiers.
func (r *Registry) Register(displayName string, data []byte, pageCount int) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if pageCount <= 0 {
		return nil, fmt.Errorf("registry: document %q has no pages", displayName)
	}
	sum := blake2b.Sum256(data)
	r.seq++
	id := fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:8]), r.seq)
	doc := &Document{
		ID:          id,
		Data:        append([]byte(nil), data...),
		PageCount:   pageCount,
		DisplayName: displayName,
	}
	r.docs[id] = doc
	r.order = append(r.order, id)
	return doc, nil
}

// Get returns the document with the given id.
func (r *Registry) Get(id string) (*Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return doc, nil
}

// Len returns the number of registered documents.
func (r *Registry) Len() int { return len(r.docs) }

// All returns the documents in registration order.
func (r *Registry) All() []*Document {
	out := make([]*Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id])
	}
	return out
}
