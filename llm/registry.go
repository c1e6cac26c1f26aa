package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/use-agent/pagecast/models"
)

// Default OpenAI-compatible endpoints.
const (
	OpenAIBaseURL   = "https://api.openai.com/v1"
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
)

// Registry builds adapters for catalog entries.
type Registry struct {
	httpClient  *http.Client
	baseURLs    map[string]string
	temperature float64
	maxTokens   int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithHTTPClient sets the client used by HTTP based adapters.
func WithHTTPClient(c *http.Client) RegistryOption {
	return func(r *Registry) { r.httpClient = c }
}

// WithBaseURL overrides the endpoint of a provider.
func WithBaseURL(provider, url string) RegistryOption {
	return func(r *Registry) { r.baseURLs[provider] = url }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) RegistryOption {
	return func(r *Registry) { r.temperature = t }
}

// WithMaxTokens caps the reply length where the provider requires it.
func WithMaxTokens(n int64) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxTokens = n
		}
	}
}

// NewRegistry creates a Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURLs: map[string]string{
			ProviderOpenAI:   OpenAIBaseURL,
			ProviderGroq:     GroqBaseURL,
			ProviderDeepSeek: DeepSeekBaseURL,
		},
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Adapter returns a fresh, uninitialized adapter for key.
func (r *Registry) Adapter(key ModelKey) (Adapter, error) {
	d, ok := Descriptor(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, key)
	}
	switch d.Provider {
	case ProviderOpenAI, ProviderGroq, ProviderDeepSeek:
		return &openAIAdapter{
			name:        d.Name,
			baseURL:     r.baseURLs[d.Provider],
			httpClient:  r.httpClient,
			temperature: r.temperature,
		}, nil
	case ProviderAnthropic:
		return &anthropicAdapter{
			name:        d.Name,
			baseURL:     r.baseURLs[ProviderAnthropic],
			httpClient:  r.httpClient,
			maxTokens:   r.maxTokens,
			temperature: r.temperature,
		}, nil
	case ProviderGoogle:
		return &geminiAdapter{
			name:        d.Name,
			temperature: float32(r.temperature),
			newClient:   newGenaiClient,
		}, nil
	default:
		return nil, fmt.Errorf("llm: no adapter for provider %q", d.Provider)
	}
}

// Generate is the one-shot form: build the adapter, initialize it with
// apiKey and make a single request.
func (r *Registry) Generate(ctx context.Context, key ModelKey, apiKey string, p Params) Result {
	a, err := r.Adapter(key)
	if err != nil {
		return Result{Error: err}
	}
	a.Init(apiKey)
	return a.GenerateResponse(ctx, p)
}

// ErrorCode maps a failed Result to an API error code.
func ErrorCode(err error) string {
	if errors.Is(err, ErrUnknownModel) {
		return models.ErrCodeUnknownModel
	}
	return models.CodeOf(err, models.ErrCodeLLMFailure)
}
