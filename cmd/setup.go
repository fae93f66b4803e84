package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sia/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example configuration to --config, or prints the effective configuration with --print.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("print") {
		return r.writeJSON(r.config, true)
	}

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Warn("config file already exists", "path", configPath)
		if _, err := shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("existing config is invalid: %w", err)
		}
		return r.writePlain("✓ %s is valid\n", configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlain("Set analytics.gtag, analytics.ga or analytics.legacy_queue to enable tracking.\n")
	return nil
}
