package analytics

import (
	"bytes"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
)

const (
	category = "foo"
	action   = "bar"
	label    = "baz"
	value    = 100
)

type recordingQueue struct {
	mu    sync.Mutex
	calls [][]any
}

func (q *recordingQueue) Push(args ...any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, args)
}

func quietLogger() *log.Logger {
	return shared.NewLogger(&bytes.Buffer{})
}

func TestDispatcher(t *testing.T) {
	t.Run("tracks using GlobalSiteTag", func(t *testing.T) {
		called := 0
		env := &Globals{GtagFn: func(command, a string, params map[string]any) {
			called++
			if command != "event" {
				t.Errorf("expected command 'event', got %s", command)
			}
			if a != action {
				t.Errorf("expected action %s, got %s", action, a)
			}
			if params["event_category"] != category {
				t.Errorf("expected event_category %s, got %v", category, params["event_category"])
			}
			if params["event_label"] != label {
				t.Errorf("expected event_label %s, got %v", label, params["event_label"])
			}
			if params["value"] != value {
				t.Errorf("expected value %d, got %v", value, params["value"])
			}
		}}

		d := NewDispatcher(DispatcherOpts{Environment: env, Logger: quietLogger()})
		d.TrackEvent(category, action, label, value)

		if called != 1 {
			t.Errorf("expected gtag to be called once, got %d", called)
		}
	})

	t.Run("omits gtag value when unset", func(t *testing.T) {
		var got map[string]any
		env := &Globals{GtagFn: func(_, _ string, params map[string]any) { got = params }}

		d := NewDispatcher(DispatcherOpts{Environment: env, Logger: quietLogger()})
		d.TrackEvent(category, action, label)

		if _, ok := got["value"]; ok {
			t.Errorf("expected no value parameter, got %v", got["value"])
		}
	})

	t.Run("tracks to the ga tracker", func(t *testing.T) {
		var args []string
		env := &Globals{GAFn: func(command, hitType, c, a, l string) {
			args = []string{command, hitType, c, a, l}
		}}

		d := NewDispatcher(DispatcherOpts{Environment: env, Logger: quietLogger()})
		d.TrackEvent(category, action, label)

		want := []string{"send", "event", category, action, label}
		if len(args) != len(want) {
			t.Fatalf("expected %v, got %v", want, args)
		}
		for i := range want {
			if args[i] != want[i] {
				t.Errorf("arg %d: expected %s, got %s", i, want[i], args[i])
			}
		}
	})

	t.Run("tracks to the legacy tracker", func(t *testing.T) {
		queue := &recordingQueue{}
		d := NewDispatcher(DispatcherOpts{Environment: &Globals{Queue: queue}, Logger: quietLogger()})
		d.TrackEvent(category, action, label)

		if len(queue.calls) != 1 {
			t.Fatalf("expected 1 push, got %d", len(queue.calls))
		}
		want := []any{"_trackEvent", category, action, label}
		got := queue.calls[0]
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("arg %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("prefers gtag over ga over _gaq", func(t *testing.T) {
		var used []string
		env := &Globals{
			GtagFn: func(string, string, map[string]any) { used = append(used, "gtag") },
			GAFn:   func(string, string, string, string, string) { used = append(used, "ga") },
			Queue:  &recordingQueue{},
		}

		d := NewDispatcher(DispatcherOpts{Environment: env, Logger: quietLogger()})
		d.TrackEvent(category, action, label)
		d.TrackEvent(category, action, label)

		if len(used) != 2 || used[0] != "gtag" || used[1] != "gtag" {
			t.Errorf("expected gtag twice, got %v", used)
		}
		if d.Backend().Name() != "gtag" {
			t.Errorf("expected gtag backend, got %s", d.Backend().Name())
		}

		env.GtagFn = nil
		d.Reset()
		d.TrackEvent(category, action, label)
		if used[len(used)-1] != "ga" {
			t.Errorf("expected ga after reset, got %v", used)
		}
	})

	t.Run("caches the detected tracker", func(t *testing.T) {
		calls := 0
		env := &countingEnv{gtag: func(string, string, map[string]any) {}, probes: &calls}

		d := NewDispatcher(DispatcherOpts{Environment: env, Logger: quietLogger()})
		for i := 0; i < 5; i++ {
			d.TrackEvent(category, action, label)
		}

		if calls != 1 {
			t.Errorf("expected environment to be probed once, got %d", calls)
		}
	})

	t.Run("disables tracking when no tracker is present", func(t *testing.T) {
		probes := 0
		env := &countingEnv{probes: &probes}

		d := NewDispatcher(DispatcherOpts{Environment: env, Logger: quietLogger()})
		d.TrackEvent(category, action, label)
		d.TrackEvent(category, action, label)

		if d.Enabled() {
			t.Error("expected tracking to be disabled")
		}
		if probes != 1 {
			t.Errorf("expected a single probe, got %d", probes)
		}
		if d.Backend() != nil {
			t.Error("expected no backend")
		}

		// a tracker appearing later is ignored until Reset
		env.gtag = func(string, string, map[string]any) {}
		d.TrackEvent(category, action, label)
		if d.Enabled() {
			t.Error("expected tracking to stay disabled")
		}

		d.Reset()
		if !d.Enabled() {
			t.Error("expected Reset to re-enable tracking")
		}
		if d.Backend() == nil {
			t.Error("expected tracker to be detected after Reset")
		}
	})

	t.Run("nil environment is a silent no-op", func(t *testing.T) {
		d := NewDispatcher(DispatcherOpts{Logger: quietLogger()})
		d.TrackEvent(category, action, label)
		if d.Enabled() {
			t.Error("expected tracking to be disabled")
		}
	})

	t.Run("debug logs dispatched events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := shared.NewLogger(buf)
		shared.SetLogLevel(logger, log.DebugLevel)

		d := NewDispatcher(DispatcherOpts{
			Environment: &Globals{Queue: &recordingQueue{}},
			Logger:      logger,
			Debug:       true,
		})
		d.TrackEvent(category, action, label)

		if !bytes.Contains(buf.Bytes(), []byte("tracking event")) {
			t.Errorf("expected debug output, got %q", buf.String())
		}
	})
}

type countingEnv struct {
	gtag   GtagFunc
	probes *int
}

func (e *countingEnv) Gtag() GtagFunc {
	*e.probes++
	return e.gtag
}

func (e *countingEnv) GA() GAFunc { return nil }

func (e *countingEnv) Gaq() Queue { return nil }

func TestTrackerFunc(t *testing.T) {
	var got Event
	var tracker Tracker = TrackerFunc(func(ev Event) { got = ev })
	tracker.Track(Event{Category: category, Action: action})

	if got.Category != category || got.Action != action {
		t.Errorf("expected event to be forwarded, got %+v", got)
	}
}
