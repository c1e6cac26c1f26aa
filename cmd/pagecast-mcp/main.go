// Command pagecast-mcp exposes the pagecast HTTP API as MCP tools over stdio.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagecast/service"
)

func main() {
	apiURL := os.Getenv("PAGECAST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PAGECAST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PAGECAST_API_KEY is required")
		os.Exit(1)
	}

	client := newAPIClient(apiURL, apiKey, &http.Client{Timeout: 180 * time.Second})
	s := newServer(client)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(client *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"pagecast",
		service.Version,
		server.WithToolCapabilities(false),
	)
	s.AddTool(extractPageTool(), handleExtractPage(client))
	s.AddTool(youtubeSummaryTool(), handleYouTubeSummary(client))
	s.AddTool(generateTool(), handleGenerate(client))
	s.AddTool(dumpLogsTool(), handleDumpLogs(client))
	s.AddTool(listModelsTool(), handleListModels(client))
	return s
}
