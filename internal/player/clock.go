package player

import (
	"sync"
	"time"
)

type timer struct {
	at  time.Duration
	seq int
	fn  func()
}

// Clock is a virtual scheduler. Timers only fire from [Clock.Advance].
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []timer
}

// NewClock creates a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *Clock) AfterFunc(d time.Duration, f func()) {
	if d < 0 {
		d = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.timers = append(c.timers, timer{at: c.now + d, seq: c.seq, fn: f})
}

// Advance moves the clock forward by d, running due timers in order. Timers scheduled by a running timer fire in
// the same call when they fall due.
func (c *Clock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		next := -1
		for i, t := range c.timers {
			if t.at > target {
				continue
			}
			if next < 0 || t.at < c.timers[next].at || (t.at == c.timers[next].at && t.seq < c.timers[next].seq) {
				next = i
			}
		}
		if next < 0 {
			c.now = target
			c.mu.Unlock()
			return fired
		}

		t := c.timers[next]
		c.timers = append(c.timers[:next], c.timers[next+1:]...)
		c.now = t.at
		c.mu.Unlock()

		t.fn()
		fired++
	}
}

// Now returns the elapsed virtual time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of timers not yet fired.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
