package extractor

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Block scoring weights used by pruneBoilerplate.
const (
	weightTextDensity = 3.0
	weightLinkDensity = -2.0
	weightTag         = 1.5
	weightClassID     = 1.0
	weightTextLength  = 0.5
)

var (
	contentHints     = []string{"content", "article", "post", "entry", "body", "main", "text"}
	boilerplateHints = []string{
		"sidebar", "ad", "widget", "nav", "menu", "comment", "footer",
		"header", "banner", "popup", "modal", "cookie", "social", "share",
		"related", "recommend", "promo",
	}
)

// pruneBoilerplate keeps the top-level body blocks that look like content
// and drops navigation, footers and similar chrome. It returns "" when the
// document has no body or no block scores above zero.
func pruneBoilerplate(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var kept []string
	doc.Find("body").Children().Each(func(_ int, block *goquery.Selection) {
		if blockScore(block) <= 0 {
			return
		}
		if h, err := goquery.OuterHtml(block); err == nil {
			kept = append(kept, h)
		}
	})
	return strings.Join(kept, "\n")
}

func blockScore(block *goquery.Selection) float64 {
	outer, err := goquery.OuterHtml(block)
	if err != nil || outer == "" {
		return 0
	}
	text := strings.TrimSpace(block.Text())
	if text == "" {
		return 0
	}

	var linkText int
	block.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkText += len(strings.TrimSpace(a.Text()))
	})

	textDensity := float64(len(text)) / float64(len(outer))
	linkDensity := float64(linkText) / float64(len(text))

	return textDensity*weightTextDensity +
		linkDensity*weightLinkDensity +
		tagScore(goquery.NodeName(block))*weightTag +
		classIDScore(block)*weightClassID +
		math.Log10(float64(len(text))+1)*weightTextLength
}

func tagScore(tag string) float64 {
	switch tag {
	case "article", "main", "section":
		return 5
	case "nav", "footer", "aside", "header":
		return -5
	}
	return 0
}

func classIDScore(block *goquery.Selection) float64 {
	class, _ := block.Attr("class")
	id, _ := block.Attr("id")
	attrs := strings.ToLower(class + " " + id)

	var score float64
	if containsAny(attrs, contentHints) {
		score += 3
	}
	if containsAny(attrs, boilerplateHints) {
		score -= 3
	}
	return score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
