package models

import "encoding/json"

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	Success bool `json:"success"`

	// StatusCode is the HTTP status code of the loaded page.
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the URL after following all redirects.
	FinalURL string `json:"final_url,omitempty"`

	// EngineUsed names the engine that produced the document ("http", "rod").
	EngineUsed string `json:"engine_used,omitempty"`

	// CacheStatus is "hit" or "miss"; empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Content *PageContent `json:"content,omitempty"`
	Timing  TimingInfo   `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// YouTubeResponse is the response for POST /api/v1/youtube.
type YouTubeResponse struct {
	Success bool          `json:"success"`
	Video   *VideoSummary `json:"video,omitempty"`
	Timing  TimingInfo    `json:"timing"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// GenerateResponse is the response for POST /api/v1/generate.
type GenerateResponse struct {
	Success bool   `json:"success"`
	Model   string `json:"model,omitempty"`

	// Result is the JSON object produced by the model.
	Result json.RawMessage `json:"result,omitempty"`

	// PromptTokens estimates the size of the page content sent.
	PromptTokens int          `json:"prompt_tokens,omitempty"`
	Timing       TimingInfo   `json:"timing"`
	Error        *ErrorDetail `json:"error,omitempty"`
}

// LogsResponse is the response for GET /api/v1/logs.
type LogsResponse struct {
	Count   int      `json:"count"`
	Entries []string `json:"entries"`
}

// ModelsResponse is the response for GET /api/v1/models.
type ModelsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent loading the page.
	FetchMs int64 `json:"fetch_ms"`

	// ProcessMs is the time spent extracting, summarizing or generating.
	ProcessMs int64 `json:"process_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	CacheSize int       `json:"cache_size"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
