package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sia/internal/analytics"
	"github.com/desertthunder/sia/internal/dom"
	"github.com/desertthunder/sia/internal/embed"
	"github.com/desertthunder/sia/internal/formatter"
	"github.com/desertthunder/sia/internal/player"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
	"github.com/urfave/cli/v3"
)

// Replay binds the players of a page to emulated widgets, replays a script against them and reports the analytics
// events they produced. With --dispatch the events are also sent to the configured trackers.
func (r *Runner) Replay(ctx context.Context, cmd *cli.Command) error {
	page := cmd.StringArg("page")
	scriptPath := cmd.StringArg("script")
	if page == "" || scriptPath == "" {
		return fmt.Errorf("%w: page and script are required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	doc, err := dom.Load(page)
	if err != nil {
		return err
	}

	steps, err := readScript(scriptPath)
	if err != nil {
		return err
	}

	var forward analytics.Tracker
	if cmd.Bool("dispatch") {
		t, err := r.newTracking()
		if err != nil {
			return err
		}
		defer t.Close()
		forward = t.dispatcher
	}

	clock := player.NewClock()
	var rows []formatter.EventRow
	tracker := analytics.TrackerFunc(func(ev analytics.Event) {
		rows = append(rows, formatter.EventRow{
			Seq:      len(rows) + 1,
			Elapsed:  clock.Now(),
			Category: ev.Category,
			Action:   ev.Action,
			Label:    ev.Label,
		})
		if forward != nil {
			forward.Track(ev)
		}
	})

	cfg := r.config.SoundCloud
	runtime := r.newRuntime()
	bootstrapper := embed.New(embed.Options{
		Document:     doc,
		Loader:       runtime,
		Tracker:      tracker,
		Logger:       r.logger,
		Scheduler:    clock,
		PollInterval: cfg.PollInterval(),
		Category:     cfg.Category,
		APIURL:       cfg.APIURL,
		Fragment:     cfg.EmbedFragment,
	})

	bound, err := bootstrapper.Init(ctx, cmd.Bool("always-load-sdk") || cfg.AlwaysLoadSDK)
	if err != nil {
		return err
	}
	defer bootstrapper.Dispose()

	embeds := bootstrapper.Embeds()
	frames := make([]soundcloud.Frame, len(embeds))
	for i, e := range embeds {
		frames[i] = e
	}

	session := player.NewSession(runtime.API(), clock, frames, shared.WithLogger(r.logger, "component", "replay"))
	applied := session.Run(steps)

	r.logger.Info("replay finished",
		"players", len(embeds), "bound", len(bound), "steps", len(steps), "applied", applied, "events", len(rows))

	var data []byte
	if format == formatter.FormatText {
		data, err = formatter.EventsToText(rows, r.palette)
	} else {
		data, err = formatter.RenderEvents(rows, format)
	}
	if err != nil {
		return err
	}
	return r.emit(data, cmd.String("output"))
}

func readScript(path string) ([]player.Step, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: script %s not found", shared.ErrInvalidArgument, path)
		}
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return player.ParseScript(f)
}
