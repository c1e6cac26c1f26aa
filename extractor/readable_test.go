package extractor

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcdef", 2},
		{"日本語テキスト", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestApplyCSSSelector(t *testing.T) {
	raw := `<html><body><nav>menu</nav><article><p>keep</p></article></body></html>`

	got, err := ApplyCSSSelector(raw, "article")
	if err != nil {
		t.Fatalf("ApplyCSSSelector: %v", err)
	}
	if got != "<article><p>keep</p></article>" {
		t.Errorf("got %q", got)
	}

	got, err = ApplyCSSSelector(raw, ".missing")
	if err != nil {
		t.Fatalf("ApplyCSSSelector: %v", err)
	}
	if got != raw {
		t.Errorf("no match should return input unchanged, got %q", got)
	}

	if _, err := ApplyCSSSelector(raw, "[["); err == nil {
		t.Error("invalid selector should fail")
	}
}

func TestReadable_FallsBackOnShortContent(t *testing.T) {
	a := Readable(`<html><body><p>tiny</p></body></html>`, "https://example.com/")
	if !a.Fallback {
		t.Error("short content should use the raw document")
	}
	if a.Text != "tiny" {
		t.Errorf("Text = %q, want %q", a.Text, "tiny")
	}
}

func TestRenderer_BuildPrompt(t *testing.T) {
	raw := `<html><body><div id="main"><h1>Guide</h1><p>Read <a href="/docs">the docs</a>.</p></div><footer>legal</footer></body></html>`

	p, err := NewRenderer().BuildPrompt(raw, "https://example.com/", "#main")
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if strings.Contains(p.Markdown, "legal") {
		t.Errorf("selector did not narrow content: %q", p.Markdown)
	}
	if !strings.Contains(p.Markdown, "# Guide") {
		t.Errorf("heading missing from markdown: %q", p.Markdown)
	}
	if !strings.Contains(p.Markdown, "https://example.com/docs") {
		t.Errorf("relative link not resolved: %q", p.Markdown)
	}
	if p.Tokens != EstimateTokens(p.Markdown) {
		t.Errorf("Tokens = %d, want %d", p.Tokens, EstimateTokens(p.Markdown))
	}
}

func TestPruneBoilerplate(t *testing.T) {
	raw := `<html><body>
<nav class="menu"><a href="/">Home</a><a href="/about">About</a></nav>
<article><h1>Title</h1><p>The body of the story, long enough to count as content.</p></article>
<footer>Copyright</footer>
</body></html>`

	got := pruneBoilerplate(raw)
	if !strings.Contains(got, "The body of the story") {
		t.Errorf("article dropped: %q", got)
	}
	if strings.Contains(got, "About") || strings.Contains(got, "Copyright") {
		t.Errorf("boilerplate kept: %q", got)
	}

	if got := pruneBoilerplate(`<html><body><nav><a href="/">x</a></nav></body></html>`); got != "" {
		t.Errorf("all boilerplate should prune to empty, got %q", got)
	}
}
