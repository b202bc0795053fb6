package testsupport

import (
	"sort"
	"sync"
	"time"
)

// Drainer runs queued loop work synchronously. *eventloop.Loop satisfies it.
type Drainer interface {
	Drain() int
}

// FakeClock is a manually advanced clock for deterministic timer tests.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

// NewFakeClock returns a clock frozen at a fixed, arbitrary instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the clock reaches now+d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	timer := &fakeTimer{at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, timer)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		was := !timer.stopped
		timer.stopped = true
		return was
	}
}

// Advance moves time forward by d, firing due timers in deadline order and
// draining the loop after each one so that re-armed timers are honoured.
func (c *FakeClock) Advance(loop Drainer, d time.Duration) {
	target := c.Now().Add(d)
	for {
		timer := c.nextDue(target)
		if timer == nil {
			break
		}
		timer.fn()
		if loop != nil {
			loop.Drain()
		}
	}
	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
	if loop != nil {
		loop.Drain()
	}
}

// Pending reports the number of armed timers.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}

func (c *FakeClock) nextDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.timers[:0]
	for _, timer := range c.timers {
		if !timer.stopped {
			live = append(live, timer)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	timer := c.timers[0]
	timer.stopped = true
	if timer.at.After(c.now) {
		c.now = timer.at
	}
	return timer
}
