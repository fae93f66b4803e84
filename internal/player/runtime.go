package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
)

// RuntimeOpts contains configuration for a [Runtime].
type RuntimeOpts struct {
	API        *API
	HTTPClient *http.Client
	Logger     *log.Logger
	Fetch      bool // download the script before installing the API
	Preloaded  bool // the API is present before any script is loaded
}

// Runtime stands in for the page's script loader. Loading the widget script installs an [API].
type Runtime struct {
	client *http.Client
	logger *log.Logger
	fetch  bool

	mu        sync.Mutex
	api       *API
	installed bool
	loads     int
}

// NewRuntime creates a runtime. Without opts.API a fresh [API] is created.
func NewRuntime(opts RuntimeOpts) *Runtime {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = NewAPI(APIOpts{Logger: opts.Logger})
	}
	return &Runtime{
		client:    opts.HTTPClient,
		logger:    opts.Logger,
		fetch:     opts.Fetch,
		api:       opts.API,
		installed: opts.Preloaded,
	}
}

// LoadScript loads the widget script at url and installs the widget API.
//
// With fetching enabled the script is downloaded first; a transport error or non-2xx status wraps
// [shared.ErrSDKLoad] and leaves the API uninstalled.
func (r *Runtime) LoadScript(ctx context.Context, url string) error {
	r.mu.Lock()
	r.loads++
	r.mu.Unlock()

	if r.fetch {
		if err := r.download(ctx, url); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.installed = true
	r.mu.Unlock()

	r.logger.Debug("widget script loaded", "url", url, "fetched", r.fetch)
	return nil
}

func (r *Runtime) download(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", shared.ErrSDKLoad, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrSDKLoad, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read script: %w", shared.ErrSDKLoad, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrSDKLoad, resp.StatusCode)
	}

	r.logger.Debug("widget script fetched", "bytes", n)
	return nil
}

// WidgetAPI returns the installed API, or nil before a script has loaded.
func (r *Runtime) WidgetAPI() soundcloud.WidgetAPI {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.installed {
		return nil
	}
	return r.api
}

// API returns the underlying factory whether or not it is installed.
func (r *Runtime) API() *API { return r.api }

// Loads returns how many times a script load was requested.
func (r *Runtime) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
