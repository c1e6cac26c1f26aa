// Command pagecast serves the pagecast HTTP API and runs its operations from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagecast/service"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pagecast:", err)
		os.Exit(1)
	}
}

// fetchFlags returns fresh loading flags for one command.
func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "mode", Usage: "fetch mode: auto, http or browser"},
		&cli.IntFlag{Name: "timeout", Usage: "page load timeout in seconds"},
		&cli.BoolFlag{Name: "stealth", Usage: "enable browser anti-detection evasions"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pagecast",
		Usage:   "extract page content, YouTube transcripts and model answers",
		Version: service.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML config file", EnvVars: []string{"PAGECAST_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "json or text"},
			&cli.BoolFlag{Name: "no-browser", Usage: "do not launch Chrome; only plain HTTP loading is available"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "port", Usage: "listen port"}},
				Action: serveAction,
			},
			{
				Name:      "extract",
				Usage:     "print the PageContent of a URL",
				ArgsUsage: "<url>",
				Flags:     append([]cli.Flag{&cli.IntFlag{Name: "max-age", Usage: "accept a cached snapshot this many seconds old"}}, fetchFlags()...),
				Action:    extractAction,
			},
			{
				Name:      "watch",
				Usage:     "open a URL in the browser and print a snapshot each time its content changes",
				ArgsUsage: "<url>",
				Action:    watchAction,
			},
			{
				Name:      "youtube",
				Usage:     "print the transcript and summary of a YouTube video",
				ArgsUsage: "<url>",
				Flags:     fetchFlags(),
				Action:    youtubeAction,
			},
			{
				Name:      "generate",
				Usage:     "send a page and a prompt to a model",
				ArgsUsage: "<url>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Required: true, Usage: "instruction for the model"},
					&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "catalog model name"},
					&cli.StringFlag{Name: "api-key", Usage: "provider API key", EnvVars: []string{"PAGECAST_LLM_API_KEY"}},
					&cli.StringFlag{Name: "system", Usage: "system prompt"},
					&cli.StringFlag{Name: "selector", Usage: "CSS selector restricting the page"},
					&cli.PathFlag{Name: "schema", Usage: "JSON schema file the reply must follow"},
				}, fetchFlags()...),
				Action: generateAction,
			},
			{
				Name:   "models",
				Usage:  "list the model catalog",
				Action: modelsAction,
			},
			{
				Name:  "logs",
				Usage: "inspect the persisted log buffer",
				Subcommands: []*cli.Command{
					{Name: "dump", Usage: "print buffered log lines", Action: logsDumpAction},
					{Name: "clear", Usage: "empty the log buffer", Action: logsClearAction},
				},
			},
		},
	}
}
