package domain

// Document describes one readable document in the library.
type Document struct {
	// ID is the file name without extension.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Path is the file on disk.
	Path string `json:"path"`

	// Pages is the number of form-feed separated pages.
	Pages int `json:"pages"`
}
