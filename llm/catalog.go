// Package llm routes extracted page content to hosted language models.
//
// A ModelKey selects one entry of a static catalog; the Registry turns it
// into an Adapter for the entry's provider. Every adapter returns a Result
// instead of an error so callers can hand the outcome straight to a UI or an
// API response.
package llm

import (
	"fmt"
	"sort"

	"github.com/use-agent/pagecast/models"
)

// ModelKey is the validated registry key of a catalog entry.
type ModelKey string

const (
	GPT4o        ModelKey = "gpt4o"
	GPT4oMini    ModelKey = "gpt4oMini"
	ClaudeSonnet ModelKey = "claudeSonnet"
	ClaudeHaiku  ModelKey = "claudeHaiku"
	GeminiFlash  ModelKey = "geminiFlash"
	GeminiPro    ModelKey = "geminiPro"
	Llama70b     ModelKey = "llama70b"
	DeepSeekChat ModelKey = "deepseekChat"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderGroq      = "groq"
	ProviderDeepSeek  = "deepseek"
)

var catalog = []models.ModelDescriptor{
	{Model: "gpt-4o", Name: string(GPT4o), Display: "GPT-4o", Provider: ProviderOpenAI},
	{Model: "gpt-4o-mini", Name: string(GPT4oMini), Display: "GPT-4o mini", Provider: ProviderOpenAI},
	{Model: "claude-sonnet-4-5", Name: string(ClaudeSonnet), Display: "Claude Sonnet", Provider: ProviderAnthropic},
	{Model: "claude-haiku-4-5", Name: string(ClaudeHaiku), Display: "Claude Haiku", Provider: ProviderAnthropic},
	{Model: "gemini-2.5-flash", Name: string(GeminiFlash), Display: "Gemini Flash", Provider: ProviderGoogle},
	{Model: "gemini-2.5-pro", Name: string(GeminiPro), Display: "Gemini Pro", Provider: ProviderGoogle},
	{Model: "llama-3.3-70b-versatile", Name: string(Llama70b), Display: "Llama 3.3 70B (Groq)", Provider: ProviderGroq},
	{Model: "deepseek-chat", Name: string(DeepSeekChat), Display: "DeepSeek Chat", Provider: ProviderDeepSeek},
}

var byName = func() map[string]models.ModelDescriptor {
	m := make(map[string]models.ModelDescriptor, len(catalog))
	for _, d := range catalog {
		if _, dup := m[d.Name]; dup {
			panic("llm: duplicate catalog name " + d.Name)
		}
		m[d.Name] = d
	}
	return m
}()

// ParseModelKey validates s against the catalog.
func ParseModelKey(s string) (ModelKey, error) {
	if _, ok := byName[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
	return ModelKey(s), nil
}

// Descriptor returns the catalog entry for key.
func Descriptor(key ModelKey) (models.ModelDescriptor, bool) {
	d, ok := byName[string(key)]
	return d, ok
}

// Catalog returns a copy of every entry, ordered by name.
func Catalog() []models.ModelDescriptor {
	out := append([]models.ModelDescriptor(nil), catalog...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
