// Package docset defines the shared data model for the retrieval engine:
// documents, vectors, and the store entries that tie them together. Every
// other package (chunk, store, ann, search, crawler) builds on these types
// so none of them need to import one another directly.
package docset

import "time"

// ContentType classifies a Document for filtering and display.
type ContentType string

const (
	ContentTypeDocumentation ContentType = "Documentation"
	ContentTypeCodeExample   ContentType = "CodeExample"
	ContentTypeTutorial      ContentType = "Tutorial"
	ContentTypeReference     ContentType = "Reference"
	ContentTypeBlogPost      ContentType = "BlogPost"
	ContentTypeOther         ContentType = "Other"
)

// Metadata carries the optional descriptive fields attached to a Document.
type Metadata struct {
	ContentType ContentType `json:"content_type"`
	Language    string      `json:"language,omitempty"`
	LastUpdated *time.Time  `json:"last_updated,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// Document is a content-bearing record identified by an opaque id.
type Document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Section  string   `json:"section,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Vector is a fixed-dimension embedding.
type Vector struct {
	Values []float32 `json:"values"`
}

// Dimension returns the vector's length.
func (v Vector) Dimension() int {
	return len(v.Values)
}

// Entry is one (document, vector, indexed_at) tuple inside the store.
type Entry struct {
	ID        string    `json:"id"`
	Document  Document  `json:"document"`
	Vector    Vector    `json:"vector"`
	IndexedAt time.Time `json:"indexed_at"`
}

// LastUpdated returns the timestamp used for age-purge comparisons: the
// document's Metadata.LastUpdated if present, else the entry's IndexedAt.
func (e Entry) LastUpdated() time.Time {
	if e.Document.Metadata.LastUpdated != nil {
		return *e.Document.Metadata.LastUpdated
	}
	return e.IndexedAt
}
