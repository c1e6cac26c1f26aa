package extractor

import (
	"bytes"
	"log/slog"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minReadableLength is the shortest readability text accepted before falling
// back to the whole document.
const minReadableLength = 50

// Article is the readable part of a page.
type Article struct {
	Title    string
	Byline   string
	Excerpt  string
	SiteName string
	Language string
	HTML     string
	Text     string
	// Fallback is set when readability failed and HTML is the whole input.
	Fallback bool
}

// Readable runs the Mozilla Readability algorithm on rawHTML. When the URL is
// invalid, readability fails, or the result is shorter than 50 characters the
// document is returned with Fallback set, pruned of boilerplate blocks when
// any content block survives.
func Readable(rawHTML, sourceURL string) Article {
	body := rawHTML
	if pruned := pruneBoilerplate(rawHTML); pruned != "" {
		body = pruned
	}
	fallback := Article{HTML: body, Text: stripTags(body), Fallback: true}

	parsed, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source url, using raw document", "url", sourceURL, "error", err)
		return fallback
	}

	a, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		slog.Warn("readability: extraction failed, using raw document", "url", sourceURL, "error", err)
		return fallback
	}
	if len(strings.TrimSpace(a.TextContent)) < minReadableLength {
		slog.Debug("readability: content too short, using raw document", "url", sourceURL, "length", len(a.TextContent))
		return fallback
	}

	return Article{
		Title:    a.Title,
		Byline:   a.Byline,
		Excerpt:  a.Excerpt,
		SiteName: a.SiteName,
		Language: a.Language,
		HTML:     a.Content,
		Text:     strings.TrimSpace(a.TextContent),
	}
}

// Renderer converts HTML fragments to Markdown. It is safe for concurrent use.
type Renderer struct {
	conv *converter.Converter
}

// NewRenderer configures html-to-markdown with the base, commonmark and table
// plugins. Tables use minimal cell padding to keep prompts short.
func NewRenderer() *Renderer {
	return &Renderer{conv: converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal)),
		),
	)}
}

// Markdown renders htmlContent, resolving relative links against domain.
func (r *Renderer) Markdown(htmlContent, domain string) (string, error) {
	return r.conv.ConvertString(htmlContent, converter.WithDomain(domain))
}

// EstimateTokens approximates a token count as runes / 3, with a minimum of
// one for non-empty text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if n < 3 {
		return 1
	}
	return n / 3
}

// ApplyCSSSelector returns the concatenated outer HTML of every element in
// rawHTML matching selector. When nothing matches rawHTML is returned as is.
func ApplyCSSSelector(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, n := range matches {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Prompt is page content prepared for a language model.
type Prompt struct {
	Title    string
	Markdown string
	Tokens   int
}

// BuildPrompt narrows rawHTML to selector (when set), extracts the readable
// part and renders it as Markdown.
func (r *Renderer) BuildPrompt(rawHTML, sourceURL, selector string) (Prompt, error) {
	if selector != "" {
		narrowed, err := ApplyCSSSelector(rawHTML, selector)
		if err != nil {
			return Prompt{}, err
		}
		rawHTML = narrowed
	}
	a := Readable(rawHTML, sourceURL)
	md, err := r.Markdown(a.HTML, sourceURL)
	if err != nil {
		return Prompt{}, err
	}
	md = strings.TrimSpace(md)
	return Prompt{Title: a.Title, Markdown: md, Tokens: EstimateTokens(md)}, nil
}

func stripTags(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return collapse(b.String())
}
