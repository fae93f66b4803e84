package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/analytics"
	"github.com/desertthunder/sia/internal/player"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
)

// RawEvent is a player event reported by a page. The widget's callback payload (soundId, relativePosition,
// currentPosition, loadedProgress) can be posted as is, with the event name and optional sound added.
type RawEvent struct {
	Event            string            `json:"event"`
	Sound            *soundcloud.Sound `json:"sound,omitempty"`
	SoundID          int64             `json:"soundId,omitempty"`
	RelativePosition *float64          `json:"relativePosition,omitempty"`
	CurrentPosition  float64           `json:"currentPosition,omitempty"`
	LoadedProgress   float64           `json:"loadedProgress,omitempty"`
}

// remoteFrame stands in for an iframe living in a remote page.
type remoteFrame struct {
	mu    sync.Mutex
	attrs map[string]string
}

func newRemoteFrame(src string) *remoteFrame {
	return &remoteFrame{attrs: map[string]string{"src": src}}
}

func (f *remoteFrame) Attr(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.attrs[name]
	return v, ok
}

func (f *remoteFrame) SetAttr(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs[name] = value
}

func (f *remoteFrame) RemoveAttr(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attrs, name)
}

// Embed is one registered player.
type Embed struct {
	ID      string
	Page    string
	Src     string
	Created time.Time

	seq     int
	key     string
	frame   *remoteFrame
	binding *soundcloud.Binding
	widget  *player.Widget
}

// Deliver forwards ev to the widget and answers its pending current-sound queries.
// It reports whether a listener received the event.
func (e *Embed) Deliver(ev RawEvent) bool {
	if ev.Sound != nil {
		e.widget.Load(*ev.Sound)
	}
	delivered := e.widget.Emit(ev.Event, soundcloud.PlayerData{
		SoundID:          ev.SoundID,
		RelativePosition: ev.RelativePosition,
		CurrentPosition:  ev.CurrentPosition,
		LoadedProgress:   ev.LoadedProgress,
	})
	e.widget.Flush()
	return delivered
}

// EmbedInfo is the public view of an [Embed].
type EmbedInfo struct {
	ID      string           `json:"id"`
	Page    string           `json:"page"`
	Src     string           `json:"src"`
	Created time.Time        `json:"created"`
	Current soundcloud.Sound `json:"current"`
	Tracks  int              `json:"tracks"`
}

// Info returns a snapshot of the embed.
func (e *Embed) Info() EmbedInfo {
	return EmbedInfo{
		ID:      e.ID,
		Page:    e.Page,
		Src:     e.Src,
		Created: e.Created,
		Current: e.binding.Current(),
		Tracks:  e.binding.Len(),
	}
}

// RegistryOpts contains configuration for a [Registry].
type RegistryOpts struct {
	API          *player.API
	Tracker      analytics.Tracker
	Logger       *log.Logger
	Scheduler    soundcloud.Scheduler
	Category     string
	PollInterval time.Duration
	EventRate    float64 // events per second per embed; non-positive disables limiting
}

// Registry binds frames reported by remote pages.
//
// Frames are keyed by page and src, so registering the same player twice fails with [soundcloud.ErrAlreadyBound]
// until the first registration is removed.
type Registry struct {
	api     *player.API
	opts    soundcloud.Options
	logger  *log.Logger
	limiter *KeyedLimiter

	mu     sync.Mutex
	seq    int
	frames map[string]*remoteFrame
	embeds map[string]*Embed
}

// NewRegistry creates an empty [Registry].
func NewRegistry(opts RegistryOpts) *Registry {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.API == nil {
		opts.API = player.NewAPI(player.APIOpts{Logger: opts.Logger})
	}
	return &Registry{
		api:     opts.API,
		logger:  opts.Logger,
		limiter: NewKeyedLimiter(opts.EventRate),
		opts: soundcloud.Options{
			API:          opts.API,
			Tracker:      opts.Tracker,
			Logger:       opts.Logger,
			Scheduler:    opts.Scheduler,
			Category:     opts.Category,
			PollInterval: opts.PollInterval,
		},
		frames: map[string]*remoteFrame{},
		embeds: map[string]*Embed{},
	}
}

// Limiter returns the per-embed event limiter.
func (r *Registry) Limiter() *KeyedLimiter { return r.limiter }

// Register binds the player src embedded in page.
func (r *Registry) Register(page, src string) (*Embed, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: src is required", shared.ErrMissingArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := page + "\x00" + src
	frame, ok := r.frames[key]
	if !ok {
		frame = newRemoteFrame(src)
	}

	binding, err := soundcloud.Attach(frame, r.opts)
	if err != nil {
		return nil, err
	}
	r.frames[key] = frame

	widget, _ := r.api.Lookup(frame)
	r.seq++
	embed := &Embed{
		ID:      shared.GenerateID(),
		Page:    page,
		Src:     src,
		Created: time.Now(),
		seq:     r.seq,
		key:     key,
		frame:   frame,
		binding: binding,
		widget:  widget,
	}
	r.embeds[embed.ID] = embed

	r.logger.Info("embed registered", "id", embed.ID, "page", page, "src", src)
	return embed, nil
}

// Get returns the embed with id, or [shared.ErrEmbedNotFound].
func (r *Registry) Get(id string) (*Embed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	embed, ok := r.embeds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmbedNotFound, id)
	}
	return embed, nil
}

// Remove disposes the embed with id and releases its frame and widget. The same page and src can be registered
// again afterwards.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	embed, ok := r.embeds[id]
	if ok {
		delete(r.embeds, id)
		if r.frames[embed.key] == embed.frame {
			delete(r.frames, embed.key)
		}
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrEmbedNotFound, id)
	}

	embed.binding.Dispose()
	r.api.Forget(embed.frame)
	r.limiter.Forget(id)
	r.logger.Info("embed removed", "id", id)
	return nil
}

// List returns every embed in registration order.
func (r *Registry) List() []EmbedInfo {
	r.mu.Lock()
	embeds := make([]*Embed, 0, len(r.embeds))
	for _, e := range r.embeds {
		embeds = append(embeds, e)
	}
	r.mu.Unlock()

	sort.Slice(embeds, func(i, j int) bool { return embeds[i].seq < embeds[j].seq })

	infos := make([]EmbedInfo, len(embeds))
	for i, e := range embeds {
		infos[i] = e.Info()
	}
	return infos
}

// Len returns the number of registered embeds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.embeds)
}

// Close removes every embed.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.embeds))
	for id := range r.embeds {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		if err := r.Remove(id); err != nil && !errors.Is(err, shared.ErrEmbedNotFound) {
			r.logger.Warn("failed to remove embed", "id", id, "err", err)
		}
	}
}
