// Package extractor pulls a structured PageContent snapshot out of an HTML
// document: title, description, cleaned main text, meta and JSON-LD
// metadata, heuristically detected products and a de-duplicated text
// variant.
//
// Every public operation degrades to its default value on failure. Failures
// are recorded in the log buffer and never returned to the caller, so one
// broken section never aborts a snapshot.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/pagecast/logbuf"
	"github.com/use-agent/pagecast/models"
)

// Extractor runs extraction operations against one parsed document. The
// document is treated as read-only; operations that strip nodes work on a
// clone of the body.
type Extractor struct {
	doc     *goquery.Document
	pageURL string
	base    *url.URL
	log     *logbuf.Logger
}

// New wraps an already parsed document. doc may be nil, in which case every
// operation returns its default.
func New(doc *goquery.Document, pageURL string, log *logbuf.Logger) *Extractor {
	e := &Extractor{doc: doc, pageURL: pageURL, log: log}
	if u, err := url.Parse(pageURL); err == nil && u.Scheme != "" {
		e.base = u
	}
	return e
}

// FromHTML parses rawHTML and wraps it. A parse failure is logged and yields
// an Extractor that returns defaults.
func FromHTML(rawHTML, pageURL string, log *logbuf.Logger) *Extractor {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		log.Error("extractor: parse document failed", pageURL, err)
		doc = nil
	}
	return New(doc, pageURL, log)
}

// URL returns the page URL the extractor was created with.
func (e *Extractor) URL() string { return e.pageURL }

// guard runs fn and converts both returned errors and panics into a log entry
// plus the default value def.
func guard[T any](e *Extractor, op string, def T, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			err := models.NewExtractError(models.KindPanic, op, fmt.Errorf("%v", r))
			e.log.Error("extractor: "+op+" panicked", err)
			out = def
		}
	}()

	v, err := fn()
	if err != nil {
		e.log.Error("extractor: "+op+" failed", err)
		return def
	}
	return v
}

// requireDoc is the common precondition of every operation.
func (e *Extractor) requireDoc(op string) error {
	if e.doc == nil || e.doc.Selection == nil {
		return models.NewExtractError(models.KindDOMAccess, op, fmt.Errorf("no document"))
	}
	return nil
}

// resolve makes ref absolute against the page URL when possible.
func (e *Extractor) resolve(ref string) string {
	if e.base == nil || ref == "" {
		return ref
	}
	u, err := e.base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
