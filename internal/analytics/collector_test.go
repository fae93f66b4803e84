package analytics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/sia/internal/shared"
	tu "github.com/desertthunder/sia/internal/testing"
)

func TestCollector(t *testing.T) {
	t.Run("New applies defaults", func(t *testing.T) {
		c := NewCollector(CollectorOpts{})
		defer c.Close()

		if c.client != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
		if cap(c.hits) != 256 {
			t.Errorf("expected buffer of 256, got %d", cap(c.hits))
		}
		if c.timeout.Seconds() != 5 {
			t.Errorf("expected 5s timeout, got %s", c.timeout)
		}
	})

	t.Run("Send", func(t *testing.T) {
		t.Run("Successful Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected json content type, got %s", r.Header.Get("Content-Type"))
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != `{"ok":true}` {
					t.Errorf("unexpected body %s", body)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			c := NewCollector(CollectorOpts{Logger: quietLogger()})
			defer c.Close()

			err := c.Send(context.Background(), Hit{URL: server.URL, ContentType: "application/json", Body: []byte(`{"ok":true}`)})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer server.Close()

			c := NewCollector(CollectorOpts{Logger: quietLogger()})
			defer c.Close()

			err := c.Send(context.Background(), Hit{URL: server.URL})
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			c := NewCollector(CollectorOpts{Logger: quietLogger()})
			defer c.Close()

			err := c.Send(context.Background(), Hit{URL: "http://example.com/\x00invalid"})
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			c := NewCollector(CollectorOpts{Client: client, Logger: quietLogger()})
			defer c.Close()

			err := c.Send(context.Background(), Hit{URL: "http://example.com"})
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)}
			c := NewCollector(CollectorOpts{Client: client, Logger: quietLogger()})
			defer c.Close()

			err := c.Send(context.Background(), Hit{URL: "http://example.com"})
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})
	})

	t.Run("Enqueue delivers every hit before Close returns", func(t *testing.T) {
		var mu sync.Mutex
		received := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			received++
			mu.Unlock()
		}))
		defer server.Close()

		c := NewCollector(CollectorOpts{Logger: quietLogger(), RateLimit: 1000, BufferSize: 10})
		for i := 0; i < 5; i++ {
			if err := c.Enqueue(Hit{URL: server.URL}); err != nil {
				t.Fatalf("expected hit to be queued, got %v", err)
			}
		}
		c.Close()

		mu.Lock()
		defer mu.Unlock()
		if received != 5 {
			t.Errorf("expected 5 hits, got %d", received)
		}
	})

	t.Run("Enqueue drops when the buffer is full", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()

		c := NewCollector(CollectorOpts{Logger: quietLogger(), RateLimit: 1000, BufferSize: 1})

		var dropped error
		for i := 0; i < 10 && dropped == nil; i++ {
			dropped = c.Enqueue(Hit{URL: server.URL})
		}
		close(release)
		c.Close()

		if !errors.Is(dropped, shared.ErrHitDropped) {
			t.Errorf("expected ErrHitDropped, got %v", dropped)
		}
	})

	t.Run("worker logs failed hits without the query", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
		logs := &tu.SafeBuffer{}
		c := NewCollector(CollectorOpts{Client: &http.Client{Transport: rt}, Logger: shared.NewLogger(logs), RateLimit: 1000})

		hit := Hit{URL: "https://example.com/mp/collect?api_secret=s3cret", ContentType: "application/json", Body: []byte(`{}`)}
		if err := c.Enqueue(hit); err != nil {
			t.Fatalf("expected hit to be queued, got %v", err)
		}
		c.Close()

		requests := rt.Requests()
		if len(requests) != 1 {
			t.Fatalf("expected 1 request, got %d", len(requests))
		}
		if requests[0].URL.Query().Get("api_secret") != "s3cret" || requests[0].Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %v", requests[0].URL, requests[0].Header)
		}

		out := logs.String()
		if !strings.Contains(out, "analytics hit failed") || !strings.Contains(out, "https://example.com/mp/collect") {
			t.Errorf("expected a failure log, got %q", out)
		}
		if strings.Contains(out, "s3cret") {
			t.Errorf("expected the secret to stay out of the log, got %q", out)
		}
	})

	t.Run("Enqueue after Close", func(t *testing.T) {
		c := NewCollector(CollectorOpts{Logger: quietLogger()})
		c.Close()
		c.Close()

		if err := c.Enqueue(Hit{URL: "http://example.com"}); !errors.Is(err, shared.ErrCollectorClosed) {
			t.Errorf("expected ErrCollectorClosed, got %v", err)
		}
	})
}
