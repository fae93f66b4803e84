package soundcloud

import "time"

// Sound is the track a widget reports as currently loaded.
type Sound struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// PlayerData is the payload delivered with widget events.
//
// RelativePosition is nil when the widget did not report a numeric position.
type PlayerData struct {
	SoundID          int64    `json:"soundId"`
	RelativePosition *float64 `json:"relativePosition,omitempty"`
	CurrentPosition  float64  `json:"currentPosition,omitempty"`
	LoadedProgress   float64  `json:"loadedProgress,omitempty"`
}

// Handler receives widget events.
type Handler func(data PlayerData)

// Widget is a handle around one embedded player frame.
type Widget interface {
	Bind(event string, handler Handler)
	Unbind(event string)
	// CurrentSound resolves asynchronously; callback may run after later events have been delivered.
	CurrentSound(callback func(Sound))
}

// Events holds the event names exposed by a widget SDK.
type Events struct {
	Ready        string
	Error        string
	PlayProgress string
	Play         string
	Pause        string
	Seek         string
	Finish       string
}

// DefaultEvents are the event names of the SoundCloud widget API.
var DefaultEvents = Events{
	Ready:        "ready",
	Error:        "error",
	PlayProgress: "playProgress",
	Play:         "play",
	Pause:        "pause",
	Seek:         "seek",
	Finish:       "finish",
}

// WidgetAPI is the widget factory provided by a loaded SDK.
type WidgetAPI interface {
	// Widget wraps frame. It fails when frame is not an embeddable player.
	Widget(frame Frame) (Widget, error)
	Events() Events
}

// Frame is an embedded player element.
type Frame interface {
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules with [time.AfterFunc].
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
