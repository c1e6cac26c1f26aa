package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagecast/models"
)

// apiClient calls the pagecast HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string, hc *http.Client) *apiClient {
	return &apiClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

// do sends payload (if any) to path and decodes a successful response into
// out. Error responses come back as "[CODE] message".
func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != nil {
			return fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func handleExtractPage(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.ExtractRequest{
			URL:          url,
			FetchOptions: models.FetchOptions{FetchMode: request.GetString("fetch_mode", "")},
			MaxAge:       request.GetInt("max_age", 0),
		}
		var resp models.ExtractResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/extract", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if resp.Content == nil {
			return mcp.NewToolResultError("extract returned no content"), nil
		}
		return mcp.NewToolResultText(formatPage(resp.Content, resp.EngineUsed)), nil
	}
}

func formatPage(pc *models.PageContent, engineName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nSource: %s\n", pc.Title, pc.URL)
	if pc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", pc.Description)
	}
	if engineName != "" {
		fmt.Fprintf(&b, "Engine: %s\n", engineName)
	}
	b.WriteString("\n")
	b.WriteString(pc.MainContent)

	if len(pc.Products) > 0 {
		b.WriteString("\n\n---\nProducts:\n")
		for _, p := range pc.Products {
			fmt.Fprintf(&b, "- %s", p.Name)
			if p.Price != "" {
				fmt.Fprintf(&b, " (%s)", p.Price)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func handleYouTubeSummary(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.YouTubeRequest{
			URL:          url,
			FetchOptions: models.FetchOptions{FetchMode: request.GetString("fetch_mode", "")},
		}
		var resp models.YouTubeResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/youtube", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		v := resp.Video
		if v == nil {
			return mcp.NewToolResultError("no transcript available for this video"), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Video: %s\n", v.VideoID)
		if v.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", v.Title)
		}
		fmt.Fprintf(&b, "\nSummary:\n%s\n\nTranscript:\n%s", v.Summary, v.Transcript)
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleGenerate(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		prompt, err := request.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError("prompt is required"), nil
		}

		payload := models.GenerateRequest{
			URL:         url,
			Prompt:      prompt,
			Model:       request.GetString("model", ""),
			CSSSelector: request.GetString("css_selector", ""),
		}
		if schema := request.GetString("schema", ""); schema != "" {
			if !json.Valid([]byte(schema)) {
				return mcp.NewToolResultError("schema must be valid JSON"), nil
			}
			payload.Schema = json.RawMessage(schema)
		}

		var resp models.GenerateResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/generate", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s\n\n---\nModel: %s, prompt tokens: %d",
			resp.Result, resp.Model, resp.PromptTokens)), nil
	}
}

func handleDumpLogs(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.LogsResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/logs", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries := resp.Entries
		if limit := request.GetInt("limit", 0); limit > 0 && limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
		if len(entries) == 0 {
			return mcp.NewToolResultText("No log entries."), nil
		}
		return mcp.NewToolResultText(strings.Join(entries, "\n")), nil
	}
}

func handleListModels(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.ModelsResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/models", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var b strings.Builder
		for _, m := range resp.Models {
			fmt.Fprintf(&b, "%s\t%s\t%s\n", m.Name, m.Provider, m.Display)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
