package debounce

import (
	"sync"
	"time"

	"jukebox/internal/eventloop"
)

// Debouncer filters a noisy input into committed positions. A raw change is
// committed at once when at least one sampling cycle has passed since the last
// commit; otherwise a single timer is (re)armed for the remainder of the cycle
// and the latest raw value is re-evaluated when it expires. All state is owned
// by the loop.
type Debouncer[P comparable] struct {
	loop     *eventloop.Loop
	sampling time.Duration
	timer    *eventloop.Timer
	onCommit func(P, time.Time)

	raw        P
	lastCommit time.Time

	mu        sync.Mutex
	committed P
}

func newDebouncer[P comparable](loop *eventloop.Loop, sampling time.Duration, initial P, onCommit func(P, time.Time)) *Debouncer[P] {
	d := &Debouncer[P]{
		loop:       loop,
		sampling:   sampling,
		onCommit:   onCommit,
		raw:        initial,
		committed:  initial,
		lastCommit: loop.Now(),
	}
	d.timer = loop.NewTimer(d.evaluate)
	return d
}

// Position returns the last committed value. Safe from any goroutine.
func (d *Debouncer[P]) Position() P {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Raw returns the most recent unfiltered input. Loop goroutine only.
func (d *Debouncer[P]) Raw() P {
	return d.raw
}

// set records a raw sample; loop goroutine only.
func (d *Debouncer[P]) set(pos P) {
	if pos == d.raw {
		return
	}
	d.raw = pos
	d.evaluate()
}

func (d *Debouncer[P]) evaluate() {
	now := d.loop.Now()
	elapsed := now.Sub(d.lastCommit)
	if elapsed < d.sampling {
		d.timer.Reset(d.sampling - elapsed)
		return
	}
	d.timer.Stop()

	d.mu.Lock()
	changed := d.committed != d.raw
	d.committed = d.raw
	d.mu.Unlock()
	if !changed {
		// The burst settled back on the committed value.
		return
	}
	previous := d.lastCommit
	d.lastCommit = now
	if d.onCommit != nil {
		d.onCommit(d.raw, previous)
	}
}
