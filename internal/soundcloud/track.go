package soundcloud

import (
	"fmt"
	"math"
)

// Track is the playback state of one track title within a binding.
type Track struct {
	Title    string // analytics label
	ID       int64  // 0 until known
	Started  bool
	Paused   bool
	Scrubbed bool // set at most once per play-through
	Finished bool
	Progress int // last observed position, 0-100
	Progstep int // highest quarter milestone reported, 0-4
}

// Tracks maps titles to their playback state.
type Tracks map[string]*Track

// GetOrCreate returns the record for title, creating it with id when missing.
//
// A record still carrying the placeholder id 0 adopts id in place.
func (t Tracks) GetOrCreate(title string, id int64) *Track {
	track, ok := t[title]
	if !ok {
		track = &Track{Title: title, ID: id}
		t[title] = track
		return track
	}
	if track.ID == 0 {
		track.ID = id
	}
	return track
}

// Start begins a new play-through.
func (t *Track) Start() {
	t.Started = true
	t.Finished = false
	t.Paused = false
	t.Scrubbed = false
	t.Progress = 0
	t.Progstep = 0
}

var milestones = [...]struct {
	threshold int
	step      int
}{
	{99, 4},
	{75, 3},
	{50, 2},
	{25, 1},
}

// SetProgress records a relative position (0-1) and returns the milestone to report, if any.
//
// Only the highest unreported milestone is returned, so a jump from 10% to 80% reports "3/4" alone.
func (t *Track) SetProgress(relative float64) (string, bool) {
	if math.IsNaN(relative) || math.IsInf(relative, 0) {
		return "", false
	}

	t.Progress = int(math.Round(relative * 100))

	for _, m := range milestones {
		if t.Progress >= m.threshold && t.Progstep < m.step {
			t.Progstep = m.step
			msg := fmt.Sprintf("%d/4", m.step)
			if t.Scrubbed {
				msg += " with scrubbing"
			}
			return msg, true
		}
	}
	return "", false
}
