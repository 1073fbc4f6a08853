package domain

import "time"

// Location is a document position.
type Location struct {
	DocumentID string
	PageNumber int
}

// BreadcrumbEntry is one visited location in the trail.
type BreadcrumbEntry struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	PageNumber     int       `json:"page_number"`
	ContextPreview string    `json:"context_preview"`
	Timestamp      time.Time `json:"timestamp"`
}

// Location returns the entry's document position.
func (e BreadcrumbEntry) Location() Location {
	return Location{DocumentID: e.DocumentID, PageNumber: e.PageNumber}
}

// SameLocation reports whether the entry points at the given position.
func (e BreadcrumbEntry) SameLocation(documentID string, page int) bool {
	return e.DocumentID == documentID && e.PageNumber == page
}
