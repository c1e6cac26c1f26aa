package models

import "time"

// PageContent is one extraction snapshot of a document.
// It is built fresh on every extraction and never mutated afterwards.
type PageContent struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	MainContent     string            `json:"mainContent"`
	DeDupedFullText string            `json:"deDupedFullText"`
	URL             string            `json:"url"`
	Metadata        map[string]string `json:"metadata"`
	Products        []Product         `json:"products"`

	// Digest is a SHA-256 over the content fields above except URL. Two
	// snapshots carry the same content exactly when their digests match.
	Digest string `json:"digest"`
	// Fingerprint is a SimHash of the de-duplicated text and DOM shape.
	// Small edits such as a changed price can leave it unchanged; it
	// measures similarity only.
	Fingerprint uint64    `json:"fingerprint,string"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Product is a heuristically detected product listing.
// Empty fields were not found on the page.
type Product struct {
	Name     string `json:"name,omitempty"`
	Price    string `json:"price,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// IsEmpty reports whether no field of the product was found.
func (p Product) IsEmpty() bool {
	return p.Name == "" && p.Price == "" && p.ImageURL == ""
}
