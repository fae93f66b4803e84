// Package embed discovers embedded SoundCloud players in a page and binds analytics to each of them.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/analytics"
	"github.com/desertthunder/sia/internal/dom"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
)

const (
	DefaultFragment = "soundcloud.com"
	DefaultAPIURL   = "https://w.soundcloud.com/player/api.js"
)

// ScriptLoader loads the widget SDK and exposes its factory once loaded.
type ScriptLoader interface {
	LoadScript(ctx context.Context, url string) error
	// WidgetAPI returns nil until the SDK is available.
	WidgetAPI() soundcloud.WidgetAPI
}

// Options contains configuration for a [Bootstrapper].
type Options struct {
	Document *dom.Document
	Loader   ScriptLoader
	Tracker  analytics.Tracker
	Logger   *log.Logger

	// Scheduler and PollInterval are passed through to every binding.
	Scheduler    soundcloud.Scheduler
	PollInterval time.Duration
	Category     string
	APIURL       string
	Fragment     string // substring identifying player frames by src
}

// Bootstrapper finds player frames, loads the SDK on demand and attaches a [soundcloud.Binding] to each frame.
type Bootstrapper struct {
	doc    *dom.Document
	loader ScriptLoader
	logger *log.Logger
	opts   soundcloud.Options
	apiURL string
	frag   string

	mu       sync.Mutex
	api      soundcloud.WidgetAPI
	bindings []*soundcloud.Binding
}

// New creates a [Bootstrapper]. An SDK already present in the loader is captured immediately.
func New(opts Options) *Bootstrapper {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.Fragment == "" {
		opts.Fragment = DefaultFragment
	}

	b := &Bootstrapper{
		doc:    opts.Document,
		loader: opts.Loader,
		logger: opts.Logger,
		apiURL: opts.APIURL,
		frag:   opts.Fragment,
		opts: soundcloud.Options{
			Tracker:      opts.Tracker,
			Logger:       opts.Logger,
			Scheduler:    opts.Scheduler,
			Category:     opts.Category,
			PollInterval: opts.PollInterval,
		},
	}
	if opts.Loader != nil {
		b.api = opts.Loader.WidgetAPI()
	}
	return b
}

// Embeds returns the document's frames whose src contains the embed fragment.
func (b *Bootstrapper) Embeds() []*dom.Element {
	if b.doc == nil {
		return nil
	}

	var embeds []*dom.Element
	for _, frame := range b.doc.Frames() {
		if strings.Contains(frame.Src(), b.frag) {
			embeds = append(embeds, frame)
		}
	}
	return embeds
}

// Init binds every embedded player in the document.
//
// With no players and alwaysLoadSDK unset, nothing is loaded and the result is empty. Otherwise the SDK is loaded
// at most once; a load failure is returned. Frames that fail to bind are logged and skipped.
func (b *Bootstrapper) Init(ctx context.Context, alwaysLoadSDK bool) ([]*soundcloud.Binding, error) {
	embeds := b.Embeds()
	if len(embeds) == 0 && !alwaysLoadSDK {
		b.logger.Debug("no embedded players found")
		return nil, nil
	}

	if _, err := b.ensureAPI(ctx); err != nil {
		return nil, err
	}

	var bound []*soundcloud.Binding
	for _, frame := range embeds {
		binding, err := b.Attach(frame)
		switch {
		case errors.Is(err, soundcloud.ErrAlreadyBound):
			b.logger.Debug("frame already bound", "src", frame.Src())
		case err != nil:
			b.logger.Warn("failed to bind frame", "src", frame.Src(), "err", err)
		default:
			bound = append(bound, binding)
		}
	}

	b.logger.Info("embedded players bound", "found", len(embeds), "bound", len(bound))
	return bound, nil
}

// Attach binds a single frame using the cached SDK.
func (b *Bootstrapper) Attach(frame soundcloud.Frame) (*soundcloud.Binding, error) {
	b.mu.Lock()
	opts := b.opts
	opts.API = b.api
	b.mu.Unlock()

	binding, err := soundcloud.Attach(frame, opts)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.bindings = append(b.bindings, binding)
	b.mu.Unlock()
	return binding, nil
}

// Bindings returns every binding made so far, including disposed ones.
func (b *Bootstrapper) Bindings() []*soundcloud.Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*soundcloud.Binding(nil), b.bindings...)
}

// WidgetAPI returns the cached SDK, or nil before it has loaded.
func (b *Bootstrapper) WidgetAPI() soundcloud.WidgetAPI {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.api
}

// Dispose disposes every binding.
func (b *Bootstrapper) Dispose() {
	for _, binding := range b.Bindings() {
		binding.Dispose()
	}
}

func (b *Bootstrapper) ensureAPI(ctx context.Context) (soundcloud.WidgetAPI, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.api != nil {
		return b.api, nil
	}
	if b.loader == nil {
		return nil, shared.ErrSDKUnavailable
	}

	if err := b.loader.LoadScript(ctx, b.apiURL); err != nil {
		if errors.Is(err, shared.ErrSDKLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrSDKLoad, err)
	}

	api := b.loader.WidgetAPI()
	if api == nil {
		return nil, fmt.Errorf("%w: %s did not provide a widget API", shared.ErrSDKUnavailable, b.apiURL)
	}
	b.api = api
	b.logger.Debug("widget SDK ready", "url", b.apiURL)
	return api, nil
}
