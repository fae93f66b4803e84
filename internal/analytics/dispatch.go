package analytics

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
)

// DispatcherOpts contains configuration options for creating a [Dispatcher].
type DispatcherOpts struct {
	Environment Environment
	Logger      *log.Logger
	Debug       bool // log every dispatched event
}

// Dispatcher forwards events to the tracker detected in its [Environment].
//
// Detection runs once, on the first call to [Dispatcher.Track]. The result, including "no tracker", is kept until
// [Dispatcher.Reset]. A Dispatcher is safe for concurrent use.
type Dispatcher struct {
	env    Environment
	logger *log.Logger
	debug  bool

	mu       sync.Mutex
	backend  Backend
	disabled bool
}

// NewDispatcher creates a new [Dispatcher]. Detection is deferred to the first tracked event.
func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Dispatcher{
		env:    opts.Environment,
		logger: opts.Logger,
		debug:  opts.Debug,
	}
}

// Track sends ev to the detected tracker. It is a no-op when tracking is disabled.
func (d *Dispatcher) Track(ev Event) {
	backend := d.resolve()
	if backend == nil {
		return
	}

	if d.debug {
		d.logger.Debug("tracking event",
			"category", ev.Category, "action", ev.Action, "label", ev.Label, "value", ev.Value, "tracker", backend.Name())
	}
	backend.Event(ev)
}

// TrackEvent is shorthand for Track with the given fields.
func (d *Dispatcher) TrackEvent(category, action, label string, value ...int) {
	ev := Event{Category: category, Action: action, Label: label}
	if len(value) > 0 {
		ev.Value = value[0]
	}
	d.Track(ev)
}

// Backend returns the detected tracker, probing the environment if that has not happened yet.
func (d *Dispatcher) Backend() Backend {
	return d.resolve()
}

// Enabled reports whether tracking is still possible. It does not probe.
func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.disabled
}

// Reset forgets the detected tracker so the next event probes the environment again.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backend = nil
	d.disabled = false
}

func (d *Dispatcher) resolve() Backend {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disabled {
		return nil
	}
	if d.backend != nil {
		return d.backend
	}

	d.backend = Detect(d.env)
	if d.backend == nil {
		d.disabled = true
		d.logger.Debug("no analytics tracker found, tracking disabled")
		return nil
	}

	d.logger.Debug("analytics tracker detected", "tracker", d.backend.Name())
	return d.backend
}
