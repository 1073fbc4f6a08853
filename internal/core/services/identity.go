package services

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// IdentityService derives comparable content identities from context signals.
type IdentityService struct {
	nonce func() string
}

// NewIdentityService creates an identity service using random selection nonces.
func NewIdentityService() *IdentityService {
	return &IdentityService{
		nonce: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Derive returns the identity for a signal.
//
// Selections always get a fresh selection_<hash>_<nonce> identifier so that
// two selections never share a cache slot. Reading signals use page_<n> when
// the page is known, content_<hash> otherwise.
func (s *IdentityService) Derive(signal domain.ContextSignal) domain.ContentIdentity {
	hash := ContentHash(signal.RawText)
	id := domain.ContentIdentity{
		Kind:        signal.Kind,
		DocumentID:  signal.DocumentID,
		ContentHash: hash,
		PageNumber:  signal.PageNumber,
	}

	switch {
	case signal.Kind == domain.SignalSelection:
		id.Identifier = "selection_" + formatHash(hash) + "_" + s.nonce()
	case signal.HasPage():
		id.Identifier = "page_" + strconv.Itoa(signal.PageNumber)
	default:
		id.Identifier = "content_" + formatHash(hash)
	}
	return id
}

// NormalizeText lowercases, strips non-word characters and collapses whitespace.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContentHash returns the polynomial rolling hash of the normalised text.
// The value is an unsigned 32-bit integer widened to int64 so distances
// between hashes can be compared directly. This is a dedup key only.
func ContentHash(text string) int64 {
	var h uint32
	for _, r := range NormalizeText(text) {
		h = h*31 + uint32(r)
	}
	return int64(h)
}

// HashDistance returns the absolute difference between two hashes.
func HashDistance(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

func formatHash(h int64) string {
	return strconv.FormatInt(h, 36)
}
