package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/pagecast/models"
)

// openAIAdapter talks to any OpenAI-compatible chat completions endpoint.
// It is used for OpenAI itself as well as Groq and DeepSeek.
type openAIAdapter struct {
	name        string
	baseURL     string
	httpClient  *http.Client
	temperature float64

	apiKey string
	ready  bool
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (a *openAIAdapter) Init(apiKey string) {
	a.apiKey = apiKey
	a.ready = true
}

func (a *openAIAdapter) GenerateResponse(ctx context.Context, p Params) Result {
	return catchAll(func() (json.RawMessage, error) {
		if !a.ready {
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

func (a *openAIAdapter) complete(ctx context.Context, model, system string, msgs []Message) (string, error) {
	body := chatRequest{
		Model:          model,
		Messages:       []chatMessage{{Role: "system", Content: system}},
		Temperature:    a.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	for _, m := range msgs {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(a.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", models.NewAPIError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewAPIError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, openAIErrorMessage(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewAPIError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewAPIError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}
	return chatResp.Choices[0].Message.Content, nil
}

func openAIErrorMessage(body []byte) string {
	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return "LLM API error"
}

// classifyStatus maps a provider HTTP status to an API error code.
func classifyStatus(status int, msg string) *models.APIError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.NewAPIError(models.ErrCodeLLMAuthFailure, msg, nil)
	case status == http.StatusTooManyRequests:
		return models.NewAPIError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewAPIError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", status, msg), nil)
	}
}
