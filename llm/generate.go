package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownModel   = errors.New("llm: unknown model")
	ErrNotInitialized = errors.New("llm: adapter not initialized")
	ErrInvalidJSON    = errors.New("llm: model returned invalid JSON")
	ErrEmptyResponse  = errors.New("llm: model returned no content")
)

// DefaultSchema is requested when Params.Schema is empty.
var DefaultSchema = json.RawMessage(`{"type":"object","properties":{"response":{"type":"string"},"code":{"type":"string"}},"required":["response"]}`)

// Role of a conversation message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params is the input of GenerateResponse.
type Params struct {
	Messages      []Message       `json:"messages,omitempty"`
	SystemPrompt  string          `json:"system_prompt,omitempty"`
	UserPrompt    string          `json:"user_prompt"`
	ExtractedCode string          `json:"extracted_code,omitempty"`
	Schema        json.RawMessage `json:"schema,omitempty"`
}

// Result is the outcome of one generation: exactly one of Error and Success
// is set.
type Result struct {
	Error   error
	Success json.RawMessage
}

// OK reports whether the generation succeeded.
func (r Result) OK() bool { return r.Error == nil }

// Adapter is one hosted model.
type Adapter interface {
	// Init builds the provider client for apiKey.
	Init(apiKey string)
	// GenerateResponse makes a single request. It never panics and never
	// retries.
	GenerateResponse(ctx context.Context, p Params) Result
}

// completeFunc sends a system prompt and conversation to a provider and
// returns the raw text reply.
type completeFunc func(ctx context.Context, system string, msgs []Message) (string, error)

// generateObject assembles the conversation, asks the provider for a JSON
// object and validates the reply.
func generateObject(ctx context.Context, complete completeFunc, p Params) (json.RawMessage, error) {
	system, msgs := buildConversation(p)
	raw, err := complete(ctx, system, msgs)
	if err != nil {
		return nil, err
	}
	raw = stripFences(raw)
	if raw == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("%w: %.80q", ErrInvalidJSON, raw)
	}
	return json.RawMessage(raw), nil
}

// catchAll runs fn and turns both its error and any panic into a Result.
func catchAll(fn func() (json.RawMessage, error)) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			res = Result{Error: fmt.Errorf("llm: panic: %w", err)}
		}
	}()
	obj, err := fn()
	if err != nil {
		return Result{Error: err}
	}
	return Result{Success: obj}
}

func buildConversation(p Params) (string, []Message) {
	schema := p.Schema
	if len(schema) == 0 {
		schema = DefaultSchema
	}

	var sys strings.Builder
	if s := strings.TrimSpace(p.SystemPrompt); s != "" {
		sys.WriteString(s)
		sys.WriteString("\n\n")
	}
	fmt.Fprintf(&sys, `Respond with a single JSON object matching this schema:
%s

Rules:
- Return ONLY valid JSON, no markdown fences or explanation.
- If a field does not apply, use null.`, string(schema))

	msgs := make([]Message, 0, len(p.Messages)+1)
	for _, m := range p.Messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}

	user := p.UserPrompt
	if p.ExtractedCode != "" {
		user += "\n\nPreviously extracted code:\n```\n" + p.ExtractedCode + "\n```"
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})
	return sys.String(), msgs
}

// stripFences removes a surrounding markdown code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
