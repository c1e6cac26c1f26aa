package models

import "encoding/json"

// FetchOptions are the loading knobs shared by every URL based request.
type FetchOptions struct {
	// Timeout is the maximum duration in seconds for loading the page.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions in the browser.
	Stealth bool `json:"stealth,omitempty"`

	// FetchMode controls the fetching strategy.
	// "auto" (default): try HTTP first, fall back to the browser if JS is needed.
	// "http": plain HTTP only.
	// "browser": headless Chrome only.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// Headers are sent with the page request.
	Headers map[string]string `json:"headers,omitempty"`
}

func (o *FetchOptions) defaults() {
	if o.Timeout == 0 {
		o.Timeout = 30
	}
	if o.FetchMode == "" {
		o.FetchMode = "auto"
	}
}

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the page to extract. Required.
	URL string `json:"url" binding:"required,url"`

	FetchOptions

	// MaxAge accepts a cached snapshot younger than this many seconds.
	// Zero always loads the page.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() { r.FetchOptions.defaults() }

// YouTubeRequest is the payload for POST /api/v1/youtube.
type YouTubeRequest struct {
	// URL is a watch, youtu.be or shorts URL. Required.
	URL string `json:"url" binding:"required,url"`

	FetchOptions
}

// Defaults applies default values to unset fields. A watch page carries its
// player response inline, so plain HTTP is the default.
func (r *YouTubeRequest) Defaults() {
	if r.FetchMode == "" {
		r.FetchMode = "http"
	}
	r.FetchOptions.defaults()
}

// ChatMessage is one prior conversation turn sent with a generate request.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// GenerateRequest is the payload for POST /api/v1/generate.
type GenerateRequest struct {
	// URL is the page whose content is sent to the model. Required.
	URL string `json:"url" binding:"required,url"`

	// Model is a catalog name such as "gpt4oMini". Empty uses the
	// configured default.
	Model string `json:"model,omitempty"`

	// APIKey overrides the configured provider key for this request.
	APIKey string `json:"api_key,omitempty"`

	// Prompt is the user instruction. Required.
	Prompt string `json:"prompt" binding:"required"`

	SystemPrompt string        `json:"system_prompt,omitempty"`
	Messages     []ChatMessage `json:"messages,omitempty" binding:"omitempty,dive"`

	// ExtractedCode is code captured earlier in the conversation; it is
	// quoted back to the model.
	ExtractedCode string `json:"extracted_code,omitempty"`

	// CSSSelector restricts the page to the matched elements before it is
	// converted to markdown.
	CSSSelector string `json:"css_selector,omitempty"`

	// Schema is the JSON schema the reply must follow.
	Schema json.RawMessage `json:"schema,omitempty"`

	FetchOptions
}

// Defaults applies default values to unset fields.
func (r *GenerateRequest) Defaults() { r.FetchOptions.defaults() }
