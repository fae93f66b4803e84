package player

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
)

// Step is one line of a replay script.
//
//	{"frame":0,"sound":{"id":1,"title":"Intro"},"event":"play"}
//	{"frame":0,"event":"playProgress","relativePosition":0.25,"advanceMs":2500}
type Step struct {
	Frame            int               `json:"frame"`
	Event            string            `json:"event,omitempty"`
	Sound            *soundcloud.Sound `json:"sound,omitempty"`
	RelativePosition *float64          `json:"relativePosition,omitempty"`
	AdvanceMS        int               `json:"advanceMs,omitempty"` // virtual time to pass before the step
	Hold             bool              `json:"hold,omitempty"`      // leave current-sound queries unanswered
}

// Advance returns the step's delay as a [time.Duration].
func (s Step) Advance() time.Duration {
	return time.Duration(s.AdvanceMS) * time.Millisecond
}

// Apply loads the step's sound into w, emits its event and, unless held, answers pending queries.
func (s Step) Apply(w *Widget) {
	if s.Sound != nil {
		w.Load(*s.Sound)
	}
	if s.Event != "" {
		w.Emit(s.Event, soundcloud.PlayerData{RelativePosition: s.RelativePosition})
	}
	if !s.Hold {
		w.Flush()
	}
}

func (s Step) validate() error {
	if s.Frame < 0 {
		return fmt.Errorf("frame %d is negative", s.Frame)
	}
	if s.Event == "" && s.Sound == nil && s.AdvanceMS == 0 && !s.Hold {
		return fmt.Errorf("step does nothing")
	}
	if s.AdvanceMS < 0 {
		return fmt.Errorf("advanceMs %d is negative", s.AdvanceMS)
	}
	return nil
}

// ParseScript reads a JSON-lines replay script. Blank lines and lines starting with # are skipped.
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(text)))
		dec.DisallowUnknownFields()

		var step Step
		if err := dec.Decode(&step); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrScriptParse, line, err)
		}
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrScriptParse, line, err)
		}
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return steps, nil
}

// Session replays scripts against the widgets of a fixed list of frames.
type Session struct {
	api    *API
	clock  *Clock
	frames []soundcloud.Frame
	logger *log.Logger
}

// NewSession creates a session. Frames are addressed by their index in frames.
func NewSession(api *API, clock *Clock, frames []soundcloud.Frame, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{api: api, clock: clock, frames: frames, logger: logger}
}

// Run applies steps in order and returns how many reached a widget.
//
// Steps addressing a frame without a widget are logged and skipped.
func (s *Session) Run(steps []Step) int {
	applied := 0
	for i, step := range steps {
		if d := step.Advance(); d > 0 {
			s.clock.Advance(d)
		}

		if step.Frame >= len(s.frames) {
			s.logger.Warn("step addresses a missing frame", "step", i+1, "frame", step.Frame)
			continue
		}
		w, ok := s.api.Lookup(s.frames[step.Frame])
		if !ok {
			s.logger.Warn("frame has no widget", "step", i+1, "frame", step.Frame)
			continue
		}

		step.Apply(w)
		applied++
	}
	return applied
}
