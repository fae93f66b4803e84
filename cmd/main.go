package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/sia/internal/shared"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
		Styled: isatty.IsTerminal(os.Stdout.Fd()),
	})

	app := &cli.Command{
		Name:     "sia",
		Usage:    "SoundCloud embed analytics",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingArgument) || errors.Is(err, shared.ErrInvalidArgument) {
			logger.Error("usage error, see --help", "err", err)
			os.Exit(2)
		}
		logger.Fatalf("application error: %v", err)
	}
}
