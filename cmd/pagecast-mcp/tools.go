package main

import "github.com/mark3labs/mcp-go/mcp"

var fetchModes = []string{"auto", "http", "browser"}

func extractPageTool() mcp.Tool {
	return mcp.NewTool("extract_page",
		mcp.WithDescription("Load a web page and return its title, description, main content, de-duplicated full text, metadata and detected products. JavaScript-heavy pages are rendered in a headless browser."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to extract"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'auto' (default, HTTP first with browser fallback), 'http' or 'browser'"),
			mcp.Enum(fetchModes...),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached snapshot up to this many seconds old (default: 0, always load)"),
		),
	)
}

func youtubeSummaryTool() mcp.Tool {
	return mcp.NewTool("youtube_summary",
		mcp.WithDescription("Fetch the transcript of a YouTube video from its first caption track and return it with a summary."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("A youtube.com/watch, youtu.be or shorts URL"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'http' (default) fetches the watch page; 'browser' opens it in a live tab"),
			mcp.Enum(fetchModes...),
		),
	)
}

func generateTool() mcp.Tool {
	return mcp.NewTool("generate",
		mcp.WithDescription("Load a web page, convert its readable content to markdown and send it with a prompt to a language model. The reply is JSON of the form {\"response\": ...}."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to send to the model"),
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Instruction for the model"),
		),
		mcp.WithString("model",
			mcp.Description("Catalog model name, see list_models (default: server configured model)"),
		),
		mcp.WithString("css_selector",
			mcp.Description("Restrict the page to elements matching this selector"),
		),
		mcp.WithString("schema",
			mcp.Description("JSON schema string the reply must follow"),
		),
	)
}

func dumpLogsTool() mcp.Tool {
	return mcp.NewTool("dump_logs",
		mcp.WithDescription("Return the server's buffered log lines, oldest first (at most 1000)."),
		mcp.WithNumber("limit",
			mcp.Description("Only return the newest N lines"),
		),
	)
}

func listModelsTool() mcp.Tool {
	return mcp.NewTool("list_models",
		mcp.WithDescription("List the model names accepted by the generate tool and their providers."),
	)
}
