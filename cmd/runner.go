package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/analytics"
	"github.com/desertthunder/sia/internal/formatter"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *formatter.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Styled     bool // color text reports
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	var palette *formatter.Palette
	if opts.Styled {
		palette = formatter.DefaultPalette
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    palette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, scanCommand, replayCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// tracking wires the configured tracker globals to their transports.
type tracking struct {
	dispatcher *analytics.Dispatcher
	collector  *analytics.Collector
	queueFile  *os.File
}

// Close flushes queued hits and closes the legacy queue file.
func (t *tracking) Close() {
	if t.collector != nil {
		t.collector.Close()
	}
	if t.queueFile != nil {
		t.queueFile.Close()
	}
}

func (r *Runner) newTracking() (*tracking, error) {
	cfg := r.config.Analytics
	logger := shared.WithLogger(r.logger, "component", "analytics")
	t := &tracking{}

	if cfg.Gtag.MeasurementID != "" || cfg.GA.TrackingID != "" {
		t.collector = analytics.NewCollector(analytics.CollectorOpts{
			Client:     r.httpClient,
			Logger:     logger,
			RateLimit:  cfg.RateLimit,
			BufferSize: cfg.BufferSize,
			Timeout:    cfg.Timeout(),
		})
	}

	queueWriter := r.output
	if cfg.LegacyQueue.Enabled && cfg.LegacyQueue.Path != "" {
		f, err := os.OpenFile(cfg.LegacyQueue.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("failed to open legacy queue file: %w", err)
		}
		t.queueFile = f
		queueWriter = f
	}

	opts := analytics.EnvironmentOpts{Config: cfg, QueueWriter: queueWriter, Logger: logger}
	if t.collector != nil {
		opts.Sink = t.collector
	}

	t.dispatcher = analytics.NewDispatcher(analytics.DispatcherOpts{
		Environment: analytics.NewEnvironment(opts),
		Logger:      logger,
		Debug:       cfg.Debug,
	})
	return t, nil
}

// emit writes rendered output to path, or to the runner's output when path is empty.
func (r *Runner) emit(data []byte, path string) error {
	if path != "" {
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path)
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
