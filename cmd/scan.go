package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sia/internal/dom"
	"github.com/desertthunder/sia/internal/embed"
	"github.com/desertthunder/sia/internal/formatter"
	"github.com/desertthunder/sia/internal/player"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
	"github.com/urfave/cli/v3"
)

// Scan binds analytics to the players of a page and reports every frame found.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	page := cmd.StringArg("page")
	if page == "" {
		return fmt.Errorf("%w: page", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	doc, err := dom.Load(page)
	if err != nil {
		return err
	}

	fragment := cmd.String("fragment")
	if fragment == "" {
		fragment = r.config.SoundCloud.EmbedFragment
	}

	bootstrapper := embed.New(embed.Options{
		Document:  doc,
		Loader:    r.newRuntime(),
		Logger:    r.logger,
		Scheduler: player.NewClock(),
		APIURL:    r.config.SoundCloud.APIURL,
		Fragment:  fragment,
	})
	if _, err := bootstrapper.Init(ctx, false); err != nil {
		return err
	}
	defer bootstrapper.Dispose()

	report := &formatter.ScanReport{Page: page, Title: doc.Title()}
	for i, frame := range doc.Frames() {
		src := frame.Src()
		marker, marked := frame.Attr(soundcloud.MarkerAttr)
		report.Frames = append(report.Frames, formatter.FrameRow{
			Index:  i,
			Src:    src,
			Player: strings.Contains(src, fragment),
			Bound:  marked && marker == src,
		})
	}

	r.logger.Debug("scan complete", "page", page, "frames", len(report.Frames), "players", report.Players())

	var data []byte
	if format == formatter.FormatText {
		data, err = formatter.ScanToText(report, r.palette)
	} else {
		data, err = formatter.RenderScan(report, format)
	}
	if err != nil {
		return err
	}
	return r.emit(data, cmd.String("output"))
}

func (r *Runner) newRuntime() *player.Runtime {
	return player.NewRuntime(player.RuntimeOpts{
		HTTPClient: r.httpClient,
		Logger:     shared.WithLogger(r.logger, "component", "player"),
		Fetch:      r.config.SoundCloud.FetchSDK,
	})
}
