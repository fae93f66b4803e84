// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, markdown or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file instead of stdout",
		},
	}
}

// setupCommand writes the example configuration
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config.toml from the built-in template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Print the effective configuration as JSON instead of writing a file",
			},
		},
		Action: r.Setup,
	}
}

// scanCommand lists the player frames of a page
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "List embedded SoundCloud players in an HTML page",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "page",
			},
		},
		Flags: append(formatFlags(),
			&cli.StringFlag{
				Name:  "fragment",
				Usage: "Substring identifying player frames (default from config)",
			},
		),
		Action: r.Scan,
	}
}

// replayCommand drives emulated players through a script and reports the analytics events
func replayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Replay a JSON-lines player event script against the players of an HTML page",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "page",
			},
			&cli.StringArg{
				Name: "script",
			},
		},
		Flags: append(formatFlags(),
			&cli.BoolFlag{
				Name:  "always-load-sdk",
				Usage: "Load the widget SDK even when the page has no players",
			},
			&cli.BoolFlag{
				Name:  "dispatch",
				Usage: "Send events to the configured analytics trackers",
			},
		),
		Action: r.Replay,
	}
}

// serveCommand starts the remote widget server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the embed registration and player event API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default from config)",
			},
			&cli.BoolFlag{
				Name:  "cors",
				Usage: "Allow cross-origin requests",
			},
		},
		Action: r.Serve,
	}
}
