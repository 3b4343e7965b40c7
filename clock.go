package fsm

import (
	"sync"
	"time"
)

// Clock schedules delayed callbacks for the timer registry.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback created by a Clock.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if it had already fired or been stopped.
	Stop() bool
}

// inlineClock is implemented by clocks whose callbacks run on the goroutine
// that moves time forward.
type inlineClock interface {
	firesInline()
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns a Clock backed by time.AfterFunc. Callbacks run on their own goroutine.
func RealClock() Clock { return realClock{} }

// FakeClock is a virtual Clock for deterministic tests. Time only moves when
// Advance is called, and due callbacks run on the goroutine calling Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	at    time.Time
	seq   uint64
	f     func()
	done  bool
}

// NewFakeClock returns a FakeClock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (*FakeClock) firesInline() {}

// Now returns the current virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AfterFunc registers f to run once the virtual time reaches now+d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.pending = append(c.pending, t)

	return t
}

// Advance moves the virtual time forward by d, running every callback that
// becomes due, in deadline order. Callbacks scheduled by those callbacks run
// too if they fall inside the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()

		next := -1
		for i, t := range c.pending {
			if t.at.After(target) {
				continue
			}

			if next < 0 || t.at.Before(c.pending[next].at) ||
				(t.at.Equal(c.pending[next].at) && t.seq < c.pending[next].seq) {
				next = i
			}
		}

		if next < 0 {
			c.now = target
			c.mu.Unlock()

			return
		}

		t := c.pending[next]
		c.pending = append(c.pending[:next], c.pending[next+1:]...)
		t.done = true
		c.now = t.at
		c.mu.Unlock()

		t.f()
	}
}

// Pending returns the number of callbacks that have neither fired nor been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

func (t *fakeTimer) Stop() bool {
	c := t.clock

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.done {
		return false
	}

	t.done = true

	for i, p := range c.pending {
		if p == t {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}

	return true
}
