package domain

import "time"

// ConnectionResult is one cross-document relevance hit.
type ConnectionResult struct {
	// SourceDocumentID is the document the snippet was found in.
	SourceDocumentID string `json:"source_document_id"`

	// DocumentName is the display name of the source document, when known.
	DocumentName string `json:"document_name,omitempty"`

	// PageNumber is the page the snippet is on.
	PageNumber int `json:"page_number"`

	// TextSnippet is the matched text.
	TextSnippet string `json:"text_snippet"`

	// RelevanceScore is in [0,1].
	RelevanceScore float64 `json:"relevance_score"`
}

// ClampScore returns a score limited to [0,1].
func ClampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// CacheEntry holds the results of a completed search for one identity.
type CacheEntry struct {
	// DocumentID and Identifier address the cache slot.
	DocumentID string
	Identifier string

	// ContentHash is the hash of the text that produced the results.
	ContentHash int64

	// Results are ordered as returned by the result selection policy.
	Results []ConnectionResult

	// StoredAt is when the entry was written.
	StoredAt time.Time
}

// Key returns the cache slot key, matching ContentIdentity.Key.
func (e CacheEntry) Key() string {
	return e.DocumentID + "/" + e.Identifier
}

// ConnectionState describes what consumers should show for the current context.
type ConnectionState string

// Available connection states.
const (
	// ConnectionIdle means there is no context yet.
	ConnectionIdle ConnectionState = "idle"

	// ConnectionLoading means a search is in flight for the current context.
	ConnectionLoading ConnectionState = "loading"

	// ConnectionReady means live results were applied.
	ConnectionReady ConnectionState = "ready"

	// ConnectionCached means results were served from the cache.
	ConnectionCached ConnectionState = "cached"

	// ConnectionEmpty means the search succeeded with no results.
	ConnectionEmpty ConnectionState = "empty"

	// ConnectionFailed means the search failed; distinct from ConnectionEmpty.
	ConnectionFailed ConnectionState = "failed"
)

// String returns the string representation.
func (s ConnectionState) String() string {
	return string(s)
}

// HasResults reports whether the state carries usable results.
func (s ConnectionState) HasResults() bool {
	return s == ConnectionReady || s == ConnectionCached
}

// ArbiterState is the state of the context arbiter.
type ArbiterState string

// Available arbiter states.
const (
	// ArbiterIdle means no signal has been accepted.
	ArbiterIdle ArbiterState = "idle"

	// ArbiterReading means a reading context is authoritative.
	ArbiterReading ArbiterState = "reading_active"

	// ArbiterSelection means a selection context is authoritative.
	ArbiterSelection ArbiterState = "selection_active"
)

// CanonicalContext is the single context the rest of the system reacts to.
type CanonicalContext struct {
	// Identity is the derived key for the active signal.
	Identity ContentIdentity

	// Signal is the accepted signal.
	Signal ContextSignal

	// Sequence increases on every arbitration decision; used as the
	// still-current guard for asynchronous results.
	Sequence uint64

	// ActivatedAt is when this context became current.
	ActivatedAt time.Time
}

// IsZero reports whether no context is set.
func (c CanonicalContext) IsZero() bool {
	return c.Identity.IsZero()
}

// Kind returns the kind of the active signal.
func (c CanonicalContext) Kind() SignalKind {
	return c.Signal.Kind
}

// ContextChange describes one arbitration transition.
type ContextChange struct {
	Previous    CanonicalContext
	Current     CanonicalContext
	Significant bool
}

// ConnectionsView is the snapshot published to UI consumers.
type ConnectionsView struct {
	// Context is the canonical context the results belong to.
	Context CanonicalContext

	// Results are the connections for Context.
	Results []ConnectionResult

	// State distinguishes loading, cached, empty and failed.
	State ConnectionState

	// Message carries a user-facing explanation for ConnectionFailed.
	Message string
}
