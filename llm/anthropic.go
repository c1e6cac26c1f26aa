package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicAdapter struct {
	name        string
	baseURL     string
	httpClient  *http.Client
	maxTokens   int64
	temperature float64

	client *anthropic.Client
}

func (a *anthropicAdapter) Init(apiKey string) {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if a.baseURL != "" {
		opts = append(opts, option.WithBaseURL(a.baseURL))
	}
	if a.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(a.httpClient))
	}
	// A single round trip per call.
	opts = append(opts, option.WithMaxRetries(0))
	client := anthropic.NewClient(opts...)
	a.client = &client
}

func (a *anthropicAdapter) GenerateResponse(ctx context.Context, p Params) Result {
	return catchAll(func() (json.RawMessage, error) {
		if a.client == nil {
			return nil, ErrNotInitialized
		}
		d, ok := byName[a.name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, a.name)
		}
		return generateObject(ctx, func(ctx context.Context, system string, msgs []Message) (string, error) {
			return a.complete(ctx, d.Model, system, msgs)
		}, p)
	})
}

func (a *anthropicAdapter) complete(ctx context.Context, model, system string, msgs []Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(msgs)),
		System:    []anthropic.TextBlockParam{{Text: system}},
	}
	if a.temperature > 0 {
		params.Temperature = anthropic.Float(a.temperature)
	}
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(apiErr.StatusCode, apiErr.Error())
		}
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}
