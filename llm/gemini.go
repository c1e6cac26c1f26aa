package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiAdapter builds its client lazily because genai.NewClient needs a
// context and Init has none.
type geminiAdapter struct {
	name        string
	temperature float32
	newClient   func(ctx context.Context, apiKey string) (*genai.Client, error)

	apiKey string
	ready  bool
	client *genai.Client
}

func newGenaiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (a *geminiAdapter) Init(apiKey string) {
	a.apiKey = apiKey
	a.client = nil
	a.ready = true
}

func (a *geminiAdapter) GenerateResponse(ctx context.Context, p Params) Result {
	return catchAll(func() (json.RawMessage, error) {
		if !a.ready {
			return nil, ErrNotInitialized
		}
		d, ok := byName[a.name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, a.name)
		}
		if a.client == nil {
			c, err := a.newClient(ctx, a.apiKey)
			if err != nil {
				return nil, fmt.Errorf("gemini: create client: %w", err)
			}
			a.client = c
		}
		schema := p.Schema
		if len(schema) == 0 {
			schema = DefaultSchema
		}
		// An unconvertible schema still reaches the model through the
		// system prompt.
		rs, _ := geminiSchema(schema)
		return generateObject(ctx, func(ctx context.Context, system string, msgs []Message) (string, error) {
			return a.complete(ctx, d.Model, system, msgs, rs)
		}, p)
	})
}

func (a *geminiAdapter) complete(ctx context.Context, model, system string, msgs []Message, schema *genai.Schema) (string, error) {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(m.Content)},
		})
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(a.temperature),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}

	resp, err := a.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Text()), nil
}

// geminiSchema converts a JSON Schema document into the OpenAPI subset
// Gemini enforces on structured output. Unsupported keywords are dropped.
func geminiSchema(raw json.RawMessage) (*genai.Schema, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("gemini: parse schema: %w", err)
	}
	return schemaFromMap(m), nil
}

func schemaFromMap(m map[string]any) *genai.Schema {
	s := &genai.Schema{}
	switch t := m["type"].(type) {
	case string:
		s.Type = schemaType(t)
	case []any:
		// ["string","null"] style unions.
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				s.Nullable = genai.Ptr(true)
			} else if s.Type == "" {
				s.Type = schemaType(name)
			}
		}
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	s.Enum = stringList(m["enum"])
	s.Required = stringList(m["required"])
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if pm, ok := v.(map[string]any); ok {
				s.Properties[name] = schemaFromMap(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = schemaFromMap(items)
	}
	return s
}

func schemaType(t string) genai.Type {
	switch strings.ToLower(t) {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	}
	return ""
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
