package player

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
)

// DefaultPlayerHost is the host serving embeddable SoundCloud players.
const DefaultPlayerHost = "w.soundcloud.com/player"

// APIOpts configures an [API].
type APIOpts struct {
	Logger *log.Logger
	Host   string // frames whose src lacks this are rejected (default: [DefaultPlayerHost])
	Events soundcloud.Events
}

// API is an in-process widget factory. It hands out one [Widget] per frame.
type API struct {
	logger *log.Logger
	host   string
	events soundcloud.Events

	mu      sync.Mutex
	widgets map[soundcloud.Frame]*Widget
	order   []*Widget
}

// NewAPI creates a widget factory.
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Host == "" {
		opts.Host = DefaultPlayerHost
	}
	if opts.Events == (soundcloud.Events{}) {
		opts.Events = soundcloud.DefaultEvents
	}
	return &API{
		logger:  opts.Logger,
		host:    opts.Host,
		events:  opts.Events,
		widgets: map[soundcloud.Frame]*Widget{},
	}
}

// Widget returns the widget for frame, creating it on first use.
//
// Returns [shared.ErrInvalidFrame] when the frame src does not point at the player host.
func (a *API) Widget(frame soundcloud.Frame) (soundcloud.Widget, error) {
	w, err := a.widget(frame)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (a *API) widget(frame soundcloud.Frame) (*Widget, error) {
	src, _ := frame.Attr("src")
	if !strings.Contains(src, a.host) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidFrame, src)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if w, ok := a.widgets[frame]; ok {
		return w, nil
	}

	w := newWidget(shared.WithLogger(a.logger, "src", src))
	a.widgets[frame] = w
	a.order = append(a.order, w)
	return w, nil
}

// Events returns the event names widgets emit.
func (a *API) Events() soundcloud.Events { return a.events }

// Lookup returns the widget already created for frame.
func (a *API) Lookup(frame soundcloud.Frame) (*Widget, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.widgets[frame]
	return w, ok
}

// Forget drops the widget created for frame, so the next [API.Widget] call creates a fresh one.
func (a *API) Forget(frame soundcloud.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.widgets[frame]
	if !ok {
		return
	}
	delete(a.widgets, frame)
	a.order = slices.DeleteFunc(a.order, func(o *Widget) bool { return o == w })
}

// Widgets returns every widget in creation order.
func (a *API) Widgets() []*Widget {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Widget(nil), a.order...)
}

// Widget emulates one embedded player.
//
// Current-sound queries are held until [Widget.Flush], which mimics the asynchronous postMessage round trip of the
// real player and lets callers decide when answers arrive.
type Widget struct {
	logger *log.Logger

	mu       sync.Mutex
	handlers map[string]soundcloud.Handler
	sound    soundcloud.Sound
	pending  []func(soundcloud.Sound)
}

func newWidget(logger *log.Logger) *Widget {
	return &Widget{logger: logger, handlers: map[string]soundcloud.Handler{}}
}

// Bind replaces the listener for event.
func (w *Widget) Bind(event string, handler soundcloud.Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[event] = handler
}

// Unbind removes the listener for event.
func (w *Widget) Unbind(event string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers, event)
}

// Listeners returns the number of bound events.
func (w *Widget) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handlers)
}

// CurrentSound queues callback until the next [Widget.Flush].
func (w *Widget) CurrentSound(callback func(soundcloud.Sound)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, callback)
}

// Sound returns the loaded sound.
func (w *Widget) Sound() soundcloud.Sound {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sound
}

// Load replaces the loaded sound. Queries still pending will see the new sound.
func (w *Widget) Load(sound soundcloud.Sound) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sound = sound
}

// Pending returns the number of unanswered current-sound queries.
func (w *Widget) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Emit delivers event to its listener. The payload's sound id defaults to the loaded sound.
// It reports whether a listener was bound.
func (w *Widget) Emit(event string, data soundcloud.PlayerData) bool {
	w.mu.Lock()
	handler, ok := w.handlers[event]
	if data.SoundID == 0 {
		data.SoundID = w.sound.ID
	}
	w.mu.Unlock()

	if !ok {
		w.logger.Debug("no listener", "event", event)
		return false
	}
	handler(data)
	return true
}

// Flush answers every pending query with the loaded sound, including queries issued while flushing.
func (w *Widget) Flush() int {
	answered := 0
	for {
		w.mu.Lock()
		pending := w.pending
		w.pending = nil
		sound := w.sound
		w.mu.Unlock()

		if len(pending) == 0 {
			return answered
		}
		for _, cb := range pending {
			cb(sound)
		}
		answered += len(pending)
	}
}
