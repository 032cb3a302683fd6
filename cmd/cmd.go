// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "maxwidth",
			Usage: "Maximum embed width (0 uses client.max_width from config)",
		},
		&cli.IntFlag{
			Name:  "maxheight",
			Usage: "Maximum embed height (0 uses client.max_height from config)",
		},
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Extra provider parameter as key=value (repeatable)",
		},
	}
}

// providersCommand lists and inspects the provider registry
func providersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "providers",
		Aliases: []string{"p"},
		Usage:   "Inspect the oEmbed provider registry",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all providers",
				Flags:  outputFlags(),
				Action: r.ProvidersList,
			},
			{
				Name:  "find",
				Usage: "Show which provider and endpoint a URL resolves to (no network access)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Flags:  outputFlags(),
				Action: r.ProvidersFind,
			},
			{
				Name:  "show",
				Usage: "Show a provider's endpoints and URL schemes",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: append(outputFlags(),
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the provider's homepage in the browser",
					},
				),
				Action: r.ProvidersShow,
			},
		},
	}
}

// fetchCommand resolves a URL and fetches its embed
func fetchCommand(r *Runner) *cli.Command {
	flags := append(requestFlags(), outputFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Fetch from this oEmbed endpoint instead of resolving the URL against the registry",
		},
		&cli.BoolFlag{
			Name:  "html",
			Usage: "Print only the embed HTML",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save the response to the embed history",
		},
		&cli.StringFlag{
			Name:  "export-dir",
			Usage: "Write README.md and the thumbnail to this directory",
		},
	)

	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the oEmbed description of a URL",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags:  flags,
		Action: r.Fetch,
	}
}

// discoverCommand finds oEmbed links advertised by a page
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Find oEmbed endpoints advertised in a page's <link> tags",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "fetch",
				Usage: "Fetch the discovered JSON endpoint",
			},
		),
		Action: r.Discover,
	}
}

// batchCommand fetches embeds for a list of URLs
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Fetch embeds for a file of URLs (one per line)",
		Flags: append(requestFlags(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "File of URLs, or - for stdin",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: text, json, csv or markdown",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent requests (max 8)",
				Value:   1,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second (0 uses batch.rate_limit from config)",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save fetched embeds and the batch run to the history",
			},
		),
		Action: r.Batch,
	}
}

// historyCommand manages saved embeds
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse saved embeds",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved embeds, newest first",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Only embeds from this provider",
					},
					&cli.StringFlag{
						Name:  "batch",
						Usage: "Only embeds saved by this batch run",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of embeds",
						Value: 50,
					},
				),
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a saved embed by ID or sequence number",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  outputFlags(),
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved embed",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:  "batches",
				Usage: "List batch runs",
				Flags: append(outputFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 20,
					},
				),
				Action: r.HistoryBatches,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the HTTP proxy
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run an HTTP oEmbed proxy (GET /oembed?url=...)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to server.host from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (defaults to server.port from config)",
			},
		},
		Action: r.Serve,
	}
}

// browseCommand launches the provider browser
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse providers and try URLs interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/oembed-tui.log",
			},
		},
		Action: r.Browse,
	}
}
