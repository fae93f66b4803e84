package analytics

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
)

// EnvironmentOpts contains everything [NewEnvironment] needs to wire tracker shapes to transports.
type EnvironmentOpts struct {
	Config      shared.AnalyticsConfig
	Sink        HitSink   // required when gtag or ga is configured
	QueueWriter io.Writer // legacy queue output (default: os.Stdout)
	Logger      *log.Logger
}

// NewEnvironment builds [Globals] from configuration.
//
// Every configured tracker is made available; detection still picks only one.
func NewEnvironment(opts EnvironmentOpts) *Globals {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	cfg := opts.Config

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = shared.GenerateID()
	}

	globals := &Globals{}

	if cfg.Gtag.MeasurementID != "" && opts.Sink != nil {
		mp := NewMeasurementProtocol(cfg.Gtag.Endpoint, cfg.Gtag.MeasurementID, cfg.Gtag.APISecret, clientID, opts.Sink,
			shared.WithLogger(opts.Logger, "tracker", "gtag"))
		globals.GtagFn = mp.Gtag
	}

	if cfg.GA.TrackingID != "" && opts.Sink != nil {
		collect := NewCollect(cfg.GA.Endpoint, cfg.GA.TrackingID, clientID, opts.Sink,
			shared.WithLogger(opts.Logger, "tracker", "ga"))
		globals.GAFn = collect.GA
	}

	if cfg.LegacyQueue.Enabled {
		w := opts.QueueWriter
		if w == nil {
			w = os.Stdout
		}
		globals.Queue = NewWriterQueue(w, shared.WithLogger(opts.Logger, "tracker", "_gaq"))
	}

	return globals
}
