package analytics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
	"golang.org/x/time/rate"
)

// Hit is one outgoing analytics HTTP request.
type Hit struct {
	URL         string
	ContentType string
	Body        []byte
}

// HitSink accepts hits for delivery.
type HitSink interface {
	Enqueue(hit Hit) error
}

// CollectorOpts contains configuration for a [Collector].
type CollectorOpts struct {
	Client     *http.Client
	Logger     *log.Logger
	RateLimit  float64       // hits per second (default: 10)
	BufferSize int           // queued hits before dropping (default: 256)
	Timeout    time.Duration // per-hit timeout (default: 5s)
}

// Collector delivers hits from a single worker goroutine, throttled by a [rate.Limiter].
type Collector struct {
	client  *http.Client
	logger  *log.Logger
	limiter *rate.Limiter
	timeout time.Duration
	hits    chan Hit
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewCollector creates a [Collector] and starts its worker.
func NewCollector(opts CollectorOpts) *Collector {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	c := &Collector{
		client:  opts.Client,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		timeout: opts.Timeout,
		hits:    make(chan Hit, opts.BufferSize),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

// Enqueue queues a hit without blocking.
//
// Returns [shared.ErrHitDropped] when the buffer is full and [shared.ErrCollectorClosed] after [Collector.Close].
func (c *Collector) Enqueue(hit Hit) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return shared.ErrCollectorClosed
	}

	select {
	case c.hits <- hit:
		return nil
	default:
		return fmt.Errorf("%w: buffer full", shared.ErrHitDropped)
	}
}

// Close stops accepting hits and waits until the queued ones have been sent.
func (c *Collector) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.hits)
		c.mu.Unlock()
	})
	<-c.done
}

// Send delivers a single hit synchronously.
func (c *Collector) Send(ctx context.Context, hit Hit) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hit.URL, bytes.NewReader(hit.Body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if hit.ContentType != "" {
		req.Header.Set("Content-Type", hit.ContentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, which carries the api_secret
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}

func (c *Collector) run() {
	defer close(c.done)

	for hit := range c.hits {
		if err := c.limiter.Wait(context.Background()); err != nil {
			c.logger.Warn("rate limiter failed", "err", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		if err := c.Send(ctx, hit); err != nil {
			endpoint, _, _ := strings.Cut(hit.URL, "?")
			c.logger.Warn("analytics hit failed", "endpoint", endpoint, "err", err)
		}
		cancel()
	}
}
