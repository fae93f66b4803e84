package soundcloud

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/analytics"
	"github.com/desertthunder/sia/internal/shared"
)

type fakeFrame struct {
	attrs map[string]string
}

func newFrame(src string) *fakeFrame {
	return &fakeFrame{attrs: map[string]string{"src": src}}
}

func (f *fakeFrame) Attr(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func (f *fakeFrame) SetAttr(name, value string) { f.attrs[name] = value }

func (f *fakeFrame) RemoveAttr(name string) { delete(f.attrs, name) }

type fakeWidget struct {
	mu       sync.Mutex
	handlers map[string]Handler
	binds    int
	unbinds  []string
	sound    Sound
	pending  []func(Sound)
}

func (w *fakeWidget) Bind(event string, handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[event] = handler
	w.binds++
}

func (w *fakeWidget) Unbind(event string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers, event)
	w.unbinds = append(w.unbinds, event)
}

func (w *fakeWidget) CurrentSound(callback func(Sound)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, callback)
}

// fire delivers a raw event, as the widget would.
func (w *fakeWidget) fire(event string, data PlayerData) {
	w.mu.Lock()
	h := w.handlers[event]
	w.mu.Unlock()
	if h != nil {
		h(data)
	}
}

// resolve answers every pending CurrentSound query with the widget's current sound.
func (w *fakeWidget) resolve() {
	w.mu.Lock()
	pending := w.pending
	w.pending = nil
	sound := w.sound
	w.mu.Unlock()

	for _, cb := range pending {
		cb(sound)
	}
}

func (w *fakeWidget) setSound(id int64, title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sound = Sound{ID: id, Title: title}
}

func (w *fakeWidget) pendingLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

type fakeAPI struct {
	widgets map[Frame]*fakeWidget
	err     error
}

func newAPI() *fakeAPI {
	return &fakeAPI{widgets: map[Frame]*fakeWidget{}}
}

func (a *fakeAPI) Widget(frame Frame) (Widget, error) {
	if a.err != nil {
		return nil, a.err
	}
	w := &fakeWidget{handlers: map[string]Handler{}}
	a.widgets[frame] = w
	return w, nil
}

func (a *fakeAPI) Events() Events { return DefaultEvents }

type scheduled struct {
	delay time.Duration
	fn    func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []scheduled
	total int
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduled{delay: d, fn: f})
	s.total++
}

// run executes every scheduled task and returns their delays.
func (s *fakeScheduler) run() []time.Duration {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	delays := make([]time.Duration, 0, len(tasks))
	for _, task := range tasks {
		delays = append(delays, task.delay)
		task.fn()
	}
	return delays
}

type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recorder) Track(ev analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}

func (r *recorder) count(action string) int {
	n := 0
	for _, a := range r.actions() {
		if a == action {
			n++
		}
	}
	return n
}

func (r *recorder) last() analytics.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return analytics.Event{}
	}
	return r.events[len(r.events)-1]
}

func quietLogger() *log.Logger {
	return shared.NewLogger(&bytes.Buffer{})
}

var errNotAFrame = errors.New("not a player frame")

// harness binds one frame and exposes its fakes.
type harness struct {
	frame     *fakeFrame
	widget    *fakeWidget
	binding   *Binding
	tracker   *recorder
	scheduler *fakeScheduler
}

func newHarness(src string) (*harness, error) {
	api := newAPI()
	h := &harness{
		frame:     newFrame(src),
		tracker:   &recorder{},
		scheduler: &fakeScheduler{},
	}

	b, err := Attach(h.frame, Options{
		API:       api,
		Tracker:   h.tracker,
		Scheduler: h.scheduler,
		Logger:    quietLogger(),
	})
	if err != nil {
		return nil, err
	}
	h.binding = b
	h.widget = api.widgets[h.frame]
	return h, nil
}

// play fires play and resolves the current-sound query with the given track.
func (h *harness) play(id int64, title string) {
	h.widget.setSound(id, title)
	h.widget.fire(DefaultEvents.Play, PlayerData{})
	h.widget.resolve()
}

func (h *harness) pause() {
	h.widget.fire(DefaultEvents.Pause, PlayerData{})
	h.widget.resolve()
}

func (h *harness) seek() {
	h.widget.fire(DefaultEvents.Seek, PlayerData{})
}

func (h *harness) finish() {
	h.widget.fire(DefaultEvents.Finish, PlayerData{})
}

func (h *harness) progress(id int64, relative float64) {
	h.widget.fire(DefaultEvents.PlayProgress, PlayerData{SoundID: id, RelativePosition: &relative})
}
