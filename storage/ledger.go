// Package storage persists collection runs into the two durable sinks: a
// cumulative JSON document and a warehouse of text documents tracked by a
// manifest.
package storage

// Ledger tracks which video identifiers are already present in one sink.
// It is built by scanning existing sink content at sink-open time and only
// mutates its in-memory view; persistence stays the sink's job. One ledger
// serves one sink for one run; it is not safe for concurrent use.
type Ledger struct {
	seen map[string]bool
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]bool)}
}

// Contains reports whether the identifier is already present in the sink.
func (l *Ledger) Contains(videoID string) bool {
	return l.seen[videoID]
}

// Mark records the identifier as present.
func (l *Ledger) Mark(videoID string) {
	l.seen[videoID] = true
}

// Len returns the number of marked identifiers.
func (l *Ledger) Len() int {
	return len(l.seen)
}
