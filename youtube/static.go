package youtube

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StaticPage is a Page over an already fetched watch page. It has no globals
// and never fires events, so the player response always comes from the
// inline scripts.
type StaticPage struct {
	pageURL string
	html    string
}

// NewStaticPage wraps fetched HTML.
func NewStaticPage(pageURL, html string) *StaticPage {
	return &StaticPage{pageURL: pageURL, html: html}
}

func (p *StaticPage) URL(context.Context) (string, error) { return p.pageURL, nil }

func (p *StaticPage) Global(context.Context, string) (json.RawMessage, error) { return nil, nil }

func (p *StaticPage) Scripts(context.Context) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.html))
	if err != nil {
		return nil, err
	}
	var scripts []string
	doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		scripts = append(scripts, s.Text())
	})
	return scripts, nil
}

func (p *StaticPage) On(string, func()) (func() error, error) {
	return func() error { return nil }, nil
}

func (p *StaticPage) ObserveMutations(func()) (func() error, error) {
	return func() error { return nil }, nil
}
