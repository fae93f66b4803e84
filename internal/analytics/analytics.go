package analytics

// Event is a single analytics event. Value is optional; zero means unset.
type Event struct {
	Category string
	Action   string
	Label    string
	Value    int
}

// Tracker accepts analytics events.
type Tracker interface {
	Track(ev Event)
}

// TrackerFunc adapts a function to the [Tracker] interface.
type TrackerFunc func(ev Event)

// Track calls f(ev).
func (f TrackerFunc) Track(ev Event) { f(ev) }

// Backend shapes an [Event] into the call signature of one tracker.
type Backend interface {
	Name() string
	Event(ev Event)
}

// GtagFunc is the shape of the global site tag: gtag("event", action, params).
type GtagFunc func(command, action string, params map[string]any)

// GAFunc is the shape of analytics.js: ga("send", "event", category, action, label).
type GAFunc func(command, hitType, category, action, label string)

// Queue is the shape of the legacy ga.js queue: _gaq.push(["_trackEvent", category, action, label]).
type Queue interface {
	Push(args ...any)
}

// Environment exposes the tracker globals present on a page. Absent trackers are returned as nil.
type Environment interface {
	Gtag() GtagFunc
	GA() GAFunc
	Gaq() Queue
}

// Globals is a static [Environment].
type Globals struct {
	GtagFn GtagFunc
	GAFn   GAFunc
	Queue  Queue
}

func (g *Globals) Gtag() GtagFunc {
	if g == nil {
		return nil
	}
	return g.GtagFn
}

func (g *Globals) GA() GAFunc {
	if g == nil {
		return nil
	}
	return g.GAFn
}

func (g *Globals) Gaq() Queue {
	if g == nil {
		return nil
	}
	return g.Queue
}
