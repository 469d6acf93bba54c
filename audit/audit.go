// Package audit records signature events collected during export. The
// serialized trail chains a hash through its records so tampering with
// any entry is detectable downstream.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// AttachmentName is the name under which the trail is embedded in the
// exported document.
const AttachmentName = "signature-audit.json"

// AttachmentMIME is the attachment media type.
const AttachmentMIME = "application/json"

// Bounds is a signature's resolved document-space rectangle.
type Bounds struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Entry records one signature event. Entries are immutable once
// created.
type Entry struct {
	SignerName       string    `json:"signerName"`
	SignerEmail      string    `json:"signerEmail,omitempty"`
	IntentAccepted   bool      `json:"intentAccepted"`
	ConsentAccepted  bool      `json:"consentAccepted"`
	Timestamp        time.Time `json:"timestamp"`
	DocumentFilename string    `json:"documentFilename"`
	DocumentHash     string    `json:"documentHash,omitempty"`
	PageNumber       int       `json:"pageNumber"`
	Bounds           Bounds    `json:"bounds"`

	PrevHash   string `json:"prevHash"`
	RecordHash string `json:"recordHash"`
}

// Trail accumulates entries during one export pass.
type Trail struct {
	entries []Entry
}

// Append seals an entry into the trail, computing its chained hash.
func (t *Trail) Append(e Entry) {
	if len(t.entries) > 0 {
		e.PrevHash = t.entries[len(t.entries)-1].RecordHash
	}
	e.RecordHash = recordHash(e)
	t.entries = append(t.entries, e)
}

// Entries returns the sealed entries in append order.
func (t *Trail) Entries() []Entry { return append([]Entry(nil), t.entries...) }

// Len returns the number of entries.
func (t *Trail) Len() int { return len(t.entries) }

// Marshal serializes the trail for attachment to the output document.
func (t *Trail) Marshal() ([]byte, error) {
	return json.MarshalIndent(t.entries, "", "  ")
}

// Verify checks the hash chain of a decoded trail.
func Verify(entries []Entry) error {
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return fmt.Errorf("audit: entry %d chain broken", i)
		}
		want := e.RecordHash
		e.RecordHash = ""
		if recordHash(e) != want {
			return fmt.Errorf("audit: entry %d hash mismatch", i)
		}
		prev = want
	}
	return nil
}

func recordHash(e Entry) string {
	e.RecordHash = ""
	data, _ := json.Marshal(e)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
