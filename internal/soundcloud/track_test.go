package soundcloud

import (
	"math"
	"testing"
)

func TestTracks(t *testing.T) {
	t.Run("GetOrCreate", func(t *testing.T) {
		t.Run("creates a record with zero flags", func(t *testing.T) {
			tracks := Tracks{}
			track := tracks.GetOrCreate("Intro", 42)

			if track.Title != "Intro" || track.ID != 42 {
				t.Errorf("expected Intro/42, got %s/%d", track.Title, track.ID)
			}
			if track.Started || track.Paused || track.Scrubbed || track.Finished {
				t.Errorf("expected zero flags, got %+v", track)
			}
			if len(tracks) != 1 {
				t.Errorf("expected 1 record, got %d", len(tracks))
			}
		})

		t.Run("returns the existing record for a title", func(t *testing.T) {
			tracks := Tracks{}
			first := tracks.GetOrCreate("Intro", 42)
			first.Started = true

			second := tracks.GetOrCreate("Intro", 42)
			if first != second {
				t.Error("expected the same record")
			}
			if !second.Started {
				t.Error("expected state to be kept")
			}
			if len(tracks) != 1 {
				t.Errorf("expected 1 record, got %d", len(tracks))
			}
		})

		t.Run("adopts the id of a placeholder record", func(t *testing.T) {
			tracks := Tracks{}
			placeholder := tracks.GetOrCreate("Intro", 0)
			placeholder.Paused = true

			track := tracks.GetOrCreate("Intro", 42)
			if track.ID != 42 {
				t.Errorf("expected id 42, got %d", track.ID)
			}
			if !track.Paused {
				t.Error("expected the placeholder state to survive")
			}
		})

		t.Run("keeps a known id", func(t *testing.T) {
			tracks := Tracks{}
			tracks.GetOrCreate("Intro", 42)

			if track := tracks.GetOrCreate("Intro", 7); track.ID != 42 {
				t.Errorf("expected id 42, got %d", track.ID)
			}
		})
	})
}

func TestTrackSetProgress(t *testing.T) {
	t.Run("reports each milestone once in order", func(t *testing.T) {
		track := &Track{Title: "Intro", ID: 1}
		var got []string
		for _, pos := range []float64{0.1, 0.25, 0.3, 0.5, 0.6, 0.75, 0.9, 0.99, 1} {
			if step, ok := track.SetProgress(pos); ok {
				got = append(got, step)
			}
		}

		want := []string{"1/4", "2/4", "3/4", "4/4"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("milestone %d: expected %s, got %s", i, want[i], got[i])
			}
		}
		if track.Progstep != 4 {
			t.Errorf("expected progstep 4, got %d", track.Progstep)
		}
	})

	t.Run("reports only the highest milestone after a jump", func(t *testing.T) {
		track := &Track{}
		track.SetProgress(0.1)

		step, ok := track.SetProgress(0.8)
		if !ok || step != "3/4" {
			t.Errorf("expected 3/4, got %q (%v)", step, ok)
		}
		if _, ok := track.SetProgress(0.8); ok {
			t.Error("expected no repeat")
		}
		if step, _ := track.SetProgress(0.99); step != "4/4" {
			t.Errorf("expected 4/4, got %q", step)
		}
	})

	t.Run("rounds the position", func(t *testing.T) {
		tests := []struct {
			name     string
			pos      float64
			progress int
			reported bool
		}{
			{name: "rounds up into a milestone", pos: 0.249, progress: 25, reported: true},
			{name: "rounds down below a milestone", pos: 0.2449, progress: 24},
			{name: "rounds up to the last milestone", pos: 0.986, progress: 99, reported: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				track := &Track{}
				_, ok := track.SetProgress(tt.pos)
				if track.Progress != tt.progress {
					t.Errorf("expected progress %d, got %d", tt.progress, track.Progress)
				}
				if ok != tt.reported {
					t.Errorf("expected reported=%v, got %v", tt.reported, ok)
				}
			})
		}
	})

	t.Run("adds the scrubbing suffix", func(t *testing.T) {
		track := &Track{Scrubbed: true}
		if step, _ := track.SetProgress(0.5); step != "2/4 with scrubbing" {
			t.Errorf("expected suffixed milestone, got %q", step)
		}
	})

	t.Run("ignores non-numeric positions", func(t *testing.T) {
		track := &Track{Progress: 30, Progstep: 1}
		for _, pos := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			if _, ok := track.SetProgress(pos); ok {
				t.Errorf("expected %v to be ignored", pos)
			}
		}
		if track.Progress != 30 || track.Progstep != 1 {
			t.Errorf("expected state unchanged, got %+v", track)
		}
	})

	t.Run("Start resets the play-through", func(t *testing.T) {
		track := &Track{Started: true, Paused: true, Scrubbed: true, Finished: true, Progress: 100, Progstep: 4}
		track.Start()

		if !track.Started || track.Paused || track.Scrubbed || track.Finished {
			t.Errorf("unexpected flags after Start: %+v", track)
		}
		if track.Progress != 0 || track.Progstep != 0 {
			t.Errorf("expected progress reset, got %d/%d", track.Progress, track.Progstep)
		}
		if step, _ := track.SetProgress(0.25); step != "1/4" {
			t.Errorf("expected milestones to be reported again, got %q", step)
		}
	})
}
