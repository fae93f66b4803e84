package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/sia/internal/server"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the embed API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = port
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d", shared.ErrInvalidArgument, cfg.Port)
	}

	t, err := r.newTracking()
	if err != nil {
		return err
	}
	defer t.Close()

	registry := server.NewRegistry(server.RegistryOpts{
		Tracker:      t.dispatcher,
		Logger:       shared.WithLogger(r.logger, "component", "registry"),
		Category:     r.config.SoundCloud.Category,
		PollInterval: r.config.SoundCloud.PollInterval(),
		EventRate:    cfg.EventRate,
	})

	srv := server.New(server.Options{
		Addr:     cfg.Addr(),
		Registry: registry,
		Logger:   shared.WithLogger(r.logger, "component", "server"),
		CORS:     cmd.Bool("cors"),
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
