// Package buildlog buffers and classifies the watch process's output
// lines into structured records for deferred display.
package buildlog

import (
	"strings"
	"sync"
)

// Kind tags a record with its display severity.
type Kind string

const (
	KindInfo  Kind = "info"
	KindWarn  Kind = "warn"
	KindError Kind = "error"
)

// Record is a single classified output line.
type Record struct {
	Text string
	Kind Kind
}

// errorMarkers are substrings that mark a stdout line as an error even
// though it did not arrive on stderr. Matching exact tool wording is
// fragile; see DESIGN.md.
var errorMarkers = []string{
	"error",
	"failed",
	"[E",
}

// IsErrorLine reports whether a line matches one of the error markers.
func IsErrorLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range errorMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// Buffer accumulates records until a consumer flushes them. The error
// partition is tracked separately so a new watch epoch can discard
// stale errors without dropping informational output.
//
// Flush is read-and-clear: records flushed but never displayed are
// lost. That is a deliberate tradeoff to prevent duplicate
// presentation, not something callers should work around.
type Buffer struct {
	mu      sync.Mutex
	records []Record
	errors  []Record
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Classify appends one record for a non-empty line. Lines from stderr
// are tagged error, as are stdout lines matching an error marker;
// everything else keeps the caller-supplied hint.
func (b *Buffer) Classify(line string, stderr bool, hint Kind) {
	if strings.TrimSpace(line) == "" {
		return
	}

	kind := hint
	if stderr || IsErrorLine(line) {
		kind = KindError
	}

	b.Append(Record{Text: line, Kind: kind})
}

// Append adds a record to the buffer.
func (b *Buffer) Append(rec Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, rec)
	if rec.Kind == KindError {
		b.errors = append(b.errors, rec)
	}
}

// Flush returns all buffered records and empties the buffer, error
// partition included.
func (b *Buffer) Flush() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.records
	b.records = nil
	b.errors = nil
	return out
}

// Errors returns a copy of the error partition without clearing it.
func (b *Buffer) Errors() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Record, len(b.errors))
	copy(out, b.errors)
	return out
}

// ClearErrors empties only the error partition. Called when a new
// watch epoch begins so stale errors from the previous cycle do not
// survive into the new one.
func (b *Buffer) ClearErrors() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.errors = nil
	kept := b.records[:0]
	for _, rec := range b.records {
		if rec.Kind != KindError {
			kept = append(kept, rec)
		}
	}
	b.records = kept
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
