package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SignalKind distinguishes the origin of a context signal.
type SignalKind string

// Available signal kinds.
const (
	// SignalReading is produced by scrolling or page rendering.
	SignalReading SignalKind = "reading"

	// SignalSelection is produced when the user finishes selecting text.
	SignalSelection SignalKind = "selection"
)

// IsValid returns true if the signal kind is recognised.
func (k SignalKind) IsValid() bool {
	return k == SignalReading || k == SignalSelection
}

// String returns the string representation.
func (k SignalKind) String() string {
	return string(k)
}

// ContextSignal is a candidate unit of attention.
type ContextSignal struct {
	// Kind is reading or selection.
	Kind SignalKind

	// RawText is the text to search on.
	RawText string

	// DocumentID identifies the document the signal was observed in.
	DocumentID string

	// PageNumber is the 1-based page, or 0 when not yet resolved.
	PageNumber int

	// CreatedAt is when the signal was observed.
	CreatedAt time.Time
}

// HasPage reports whether the page number is known.
func (s ContextSignal) HasPage() bool {
	return s.PageNumber > 0
}

// TextLength returns the number of runes in the trimmed raw text.
func (s ContextSignal) TextLength() int {
	return utf8.RuneCountInString(strings.TrimSpace(s.RawText))
}

// Validate checks the signal against the minimum text length.
// Signals failing validation are dropped, never cached.
func (s ContextSignal) Validate(minLength int) error {
	if !s.Kind.IsValid() {
		return ErrInvalidSignal
	}
	if strings.TrimSpace(s.DocumentID) == "" {
		return ErrInvalidSignal
	}
	if s.TextLength() < minLength {
		return ErrInvalidSignal
	}
	return nil
}

// ContentIdentity is the comparable key derived from a ContextSignal.
type ContentIdentity struct {
	// Kind mirrors the kind of the signal the identity was derived from.
	Kind SignalKind

	// DocumentID scopes the identifier to one document.
	DocumentID string

	// Identifier is one of page_<n>, content_<hash> or selection_<hash>_<nonce>.
	Identifier string

	// ContentHash is the rolling hash of the normalised text.
	ContentHash int64

	// PageNumber is carried through from the signal (0 when unknown).
	PageNumber int
}

// IsZero reports whether the identity is unset.
func (i ContentIdentity) IsZero() bool {
	return i.Identifier == ""
}

// Key returns the cache slot key. Identical identifiers within one
// document share a slot.
func (i ContentIdentity) Key() string {
	return i.DocumentID + "/" + i.Identifier
}

// Same reports whether two identities address the same cache slot.
func (i ContentIdentity) Same(other ContentIdentity) bool {
	return i.DocumentID == other.DocumentID && i.Identifier == other.Identifier
}

// IsPageBased reports whether the identifier is derived from a page number.
func (i ContentIdentity) IsPageBased() bool {
	return strings.HasPrefix(i.Identifier, "page_")
}
