package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/pagecast/models"
)

// PageTitle returns the document title with whitespace collapsed, or "".
func (e *Extractor) PageTitle() string {
	return guard(e, "page title", "", func() (string, error) {
		if err := e.requireDoc("page title"); err != nil {
			return "", err
		}
		return collapse(e.doc.Find("title").First().Text()), nil
	})
}

// PageDescription tries the meta description, then the OpenGraph
// description, then the text of the first paragraph. The first non-empty
// candidate wins.
func (e *Extractor) PageDescription() string {
	return guard(e, "page description", "", func() (string, error) {
		if err := e.requireDoc("page description"); err != nil {
			return "", err
		}
		candidates := []func() string{
			func() string { return metaContent(e.doc.Find(`meta[name="description"]`)) },
			func() string { return metaContent(e.doc.Find(`meta[property="og:description"]`)) },
			func() string { return collapse(e.doc.Find("p").First().Text()) },
		}
		for _, c := range candidates {
			if v := c(); v != "" {
				return v, nil
			}
		}
		return "", nil
	})
}

func metaContent(s *goquery.Selection) string {
	v, _ := s.First().Attr("content")
	return strings.TrimSpace(v)
}

// MainContent returns the trimmed text of the body with script and style
// elements and comments removed.
func (e *Extractor) MainContent() string {
	return guard(e, "main content", "", func() (string, error) {
		body, err := e.cleanBody("main content")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(body.Text()), nil
	})
}

// DeDupedFullText returns the cleaned body text with duplicate lines removed.
// See DeDupeText.
func (e *Extractor) DeDupedFullText() string {
	return guard(e, "de-duplicated text", "", func() (string, error) {
		body, err := e.cleanBody("de-duplicated text")
		if err != nil {
			return "", err
		}
		return DeDupeText(body.Text()), nil
	})
}

// DeDupeText splits text on newlines, trims each line, drops lines of at
// most one character, keeps the first occurrence of each remaining line and
// joins them with single spaces. Whitespace runs in the result are collapsed.
// Applying it to its own output returns the output unchanged.
func DeDupeText(text string) string {
	seen := make(map[string]struct{})
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 1 {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		kept = append(kept, line)
	}
	return collapse(strings.Join(kept, " "))
}

// cleanBody clones the body and strips noise from the clone.
func (e *Extractor) cleanBody(op string) (*goquery.Selection, error) {
	if err := e.requireDoc(op); err != nil {
		return nil, err
	}
	body := e.doc.Find("body").First()
	if body.Length() == 0 {
		return nil, models.NewExtractError(models.KindNoMatch, op, errNoBody)
	}
	clone := body.Clone()
	clone.Find("script, style").Remove()
	stripComments(clone.Nodes...)
	return clone, nil
}

func stripComments(nodes ...*html.Node) {
	for _, n := range nodes {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.CommentNode {
				n.RemoveChild(c)
			} else {
				stripComments(c)
			}
			c = next
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
