package soundcloud

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/analytics"
	"github.com/desertthunder/sia/internal/shared"
)

const (
	// MarkerAttr is set on bound frames; its value is the frame src at bind time.
	MarkerAttr = "data-sia"

	DefaultCategory     = "SoundCloud"
	DefaultPollInterval = 2500 * time.Millisecond
)

// Analytics actions
const (
	ActionError          = "Error"
	ActionStarted        = "Playback started"
	ActionResumed        = "Playback resumed"
	ActionPaused         = "Playback paused"
	ActionScrubbed       = "Playback scrubbed"
	ActionFinished       = "Played in full"
	ActionFinishedScrub  = "Played in full with scrubbing"
	ActionProgressPrefix = "Progress "
)

var (
	ErrNoFrame      = errors.New("no frame supplied")
	ErrAlreadyBound = errors.New("frame already bound")
	ErrBindFailed   = errors.New("binding failed")
)

type pollState int

const (
	pollIdle pollState = iota
	pollScheduled
)

// Options configures [Attach].
type Options struct {
	API     WidgetAPI
	Tracker analytics.Tracker
	Logger  *log.Logger

	// Scheduler runs current-sound polls (default: [TimerScheduler]).
	Scheduler Scheduler
	// Category is the analytics category of every event (default: "SoundCloud").
	Category string
	// PollInterval delays polls once a track id is cached (default: 2.5s).
	PollInterval time.Duration
}

// Binding translates the raw events of one widget into analytics events.
//
// All state is owned by the binding. Callbacks may arrive from any goroutine; state is guarded by mu and
// [Widget.CurrentSound] is never called while mu is held.
type Binding struct {
	frame     Frame
	widget    Widget
	events    Events
	tracker   analytics.Tracker
	scheduler Scheduler
	logger    *log.Logger
	category  string
	interval  time.Duration

	mu     sync.Mutex
	active bool
	title  string // cached current track
	id     int64
	tracks Tracks
	last   *Track // record touched by the most recent event
	poll   pollState
}

// Attach wraps frame in a widget and binds the analytics listeners.
//
// Returns [ErrNoFrame] for a nil frame, [ErrAlreadyBound] when the frame's marker equals its current src and
// [ErrBindFailed] when the widget cannot be created.
func Attach(frame Frame, opts Options) (*Binding, error) {
	if frame == nil {
		return nil, ErrNoFrame
	}

	src, _ := frame.Attr("src")
	if marker, ok := frame.Attr(MarkerAttr); ok && marker != "" && marker == src {
		return nil, ErrAlreadyBound
	}

	if opts.API == nil {
		return nil, fmt.Errorf("%w: %w", ErrBindFailed, shared.ErrSDKUnavailable)
	}

	widget, err := opts.API.Widget(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindFailed, err)
	}

	frame.SetAttr(MarkerAttr, src)

	if opts.Tracker == nil {
		opts.Tracker = analytics.TrackerFunc(func(analytics.Event) {})
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Category == "" {
		opts.Category = DefaultCategory
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	b := &Binding{
		frame:     frame,
		widget:    widget,
		events:    opts.API.Events(),
		tracker:   opts.Tracker,
		scheduler: opts.Scheduler,
		logger:    shared.WithLogger(opts.Logger, "src", src),
		category:  opts.Category,
		interval:  opts.PollInterval,
		active:    true,
		tracks:    Tracks{},
	}

	widget.Bind(b.events.Error, b.onError)
	widget.Bind(b.events.PlayProgress, b.onProgress)
	widget.Bind(b.events.Play, b.onPlay)
	widget.Bind(b.events.Pause, b.onPause)
	widget.Bind(b.events.Seek, b.onSeek)
	widget.Bind(b.events.Finish, b.onFinish)

	b.logger.Debug("widget bound")
	return b, nil
}

// Frame returns the bound frame.
func (b *Binding) Frame() Frame { return b.frame }

// Widget returns the widget handle.
func (b *Binding) Widget() Widget { return b.widget }

// Active reports whether the binding has not been disposed.
func (b *Binding) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Current returns the cached current track.
func (b *Binding) Current() Sound {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Sound{ID: b.id, Title: b.title}
}

// Track returns a copy of the record for title.
func (b *Binding) Track(title string) (Track, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tracks[title]
	if !ok {
		return Track{}, false
	}
	return *t, true
}

// Len returns the number of records in the collection.
func (b *Binding) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tracks)
}

// Dispose unbinds every listener and clears the frame marker. Late callbacks become no-ops.
func (b *Binding) Dispose() {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	b.active = false
	b.mu.Unlock()

	for _, event := range []string{
		b.events.Error, b.events.PlayProgress, b.events.Play, b.events.Pause, b.events.Seek, b.events.Finish,
	} {
		b.widget.Unbind(event)
	}
	b.frame.RemoveAttr(MarkerAttr)
	b.logger.Debug("widget disposed")
}

// emit must be called with mu held.
func (b *Binding) emit(action, label string) {
	b.tracker.Track(analytics.Event{Category: b.category, Action: action, Label: label})
}

func (b *Binding) onError(PlayerData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	b.emit(ActionError, b.title)
}

// onProgress updates the last record and schedules at most one current-sound poll at a time.
func (b *Binding) onProgress(data PlayerData) {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}

	if b.last != nil && b.last.ID == data.SoundID && data.RelativePosition != nil {
		if step, ok := b.last.SetProgress(*data.RelativePosition); ok {
			b.emit(ActionProgressPrefix+step, b.last.Title)
		}
	}

	if b.poll != pollIdle {
		b.mu.Unlock()
		return
	}
	b.poll = pollScheduled

	delay := b.interval
	if b.id == 0 {
		delay = 0
	}
	b.mu.Unlock()

	b.scheduler.AfterFunc(delay, b.pollCurrentSound)
}

func (b *Binding) pollCurrentSound() {
	if !b.Active() {
		return
	}

	b.widget.CurrentSound(func(sound Sound) {
		b.mu.Lock()
		defer b.mu.Unlock()

		b.poll = pollIdle
		if !b.active {
			return
		}

		// a different track invalidates every record; returning to a title later starts fresh
		if b.id != sound.ID {
			b.logger.Debug("current track changed", "title", sound.Title, "id", sound.ID)
			b.title = sound.Title
			b.id = sound.ID
			b.tracks = Tracks{}
		}
	})
}

func (b *Binding) onPlay(PlayerData) {
	if !b.Active() {
		return
	}

	b.widget.CurrentSound(func(sound Sound) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.active {
			return
		}

		b.title = sound.Title
		b.id = sound.ID

		track := b.tracks.GetOrCreate(sound.Title, sound.ID)
		b.last = track

		switch {
		case !track.Started || track.Finished:
			track.Start()
			b.emit(ActionStarted, b.title)
		case track.Paused:
			track.Paused = false
			b.emit(ActionResumed, b.title)
		}
	})
}

// onPause confirms the pause against the widget's current sound, since a pause also fires when a track finishes
// or the playlist advances. Starting a track in another widget on the same page still passes this check.
func (b *Binding) onPause(PlayerData) {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	track := b.tracks.GetOrCreate(b.title, b.id)
	b.last = track
	b.mu.Unlock()

	b.widget.CurrentSound(func(sound Sound) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.active {
			return
		}

		if sound.ID == track.ID && !track.Finished {
			track.Paused = true
			b.emit(ActionPaused, b.title)
		}
	})
}

func (b *Binding) onSeek(PlayerData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}

	track := b.tracks.GetOrCreate(b.title, b.id)
	b.last = track

	if track.Scrubbed {
		return
	}
	if !track.Paused && !track.Finished {
		track.Scrubbed = true
		b.emit(ActionScrubbed, b.title)
	}
}

func (b *Binding) onFinish(PlayerData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}

	track := b.tracks.GetOrCreate(b.title, b.id)
	b.last = track

	if track.Finished {
		return
	}
	track.Finished = true

	action := ActionFinished
	if track.Scrubbed {
		action = ActionFinishedScrub
	}
	b.emit(action, b.title)
}
