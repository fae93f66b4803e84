package analytics

// GlobalSiteTag sends events through gtag.js.
type GlobalSiteTag struct {
	fn GtagFunc
}

func (b *GlobalSiteTag) Name() string { return "gtag" }

// Event calls gtag("event", action, {event_category, event_label, value}).
//
// The value parameter is only present when ev.Value is set.
func (b *GlobalSiteTag) Event(ev Event) {
	params := map[string]any{
		"event_category": ev.Category,
		"event_label":    ev.Label,
	}
	if ev.Value != 0 {
		params["value"] = ev.Value
	}
	b.fn("event", ev.Action, params)
}

// Analytics sends events through analytics.js. The value is not forwarded.
type Analytics struct {
	fn GAFunc
}

func (b *Analytics) Name() string { return "ga" }

func (b *Analytics) Event(ev Event) {
	b.fn("send", "event", ev.Category, ev.Action, ev.Label)
}

// Legacy pushes events onto the ga.js queue. The value is not forwarded.
type Legacy struct {
	queue Queue
}

func (b *Legacy) Name() string { return "_gaq" }

func (b *Legacy) Event(ev Event) {
	b.queue.Push("_trackEvent", ev.Category, ev.Action, ev.Label)
}

// Detect returns the first tracker available in env, in priority order gtag, ga, _gaq, or nil.
func Detect(env Environment) Backend {
	if env == nil {
		return nil
	}
	if fn := env.Gtag(); fn != nil {
		return &GlobalSiteTag{fn: fn}
	}
	if fn := env.GA(); fn != nil {
		return &Analytics{fn: fn}
	}
	if q := env.Gaq(); q != nil {
		return &Legacy{queue: q}
	}
	return nil
}
