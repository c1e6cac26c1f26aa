// Package engine loads page documents, either over plain HTTP with a browser
// TLS fingerprint or through a real browser when the page needs JavaScript.
package engine

import (
	"context"
	"net/http"
	"time"
)

// Engine loads one document.
type Engine interface {
	// Name identifies the engine in logs and responses ("http", "rod").
	Name() string
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest describes a document to load.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Cookies []http.Cookie
	Timeout time.Duration
	Stealth bool
}

// FetchResult is a loaded document.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}
