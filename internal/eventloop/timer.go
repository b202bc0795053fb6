package eventloop

import "time"

// Timer is a one-shot timer whose callback runs on the loop. A Reset
// supersedes any earlier arming: a stale expiry that is already queued is
// discarded by comparing generations, so the callback only ever observes the
// latest deadline. Timer methods must be called from the loop goroutine.
type Timer struct {
	loop  *Loop
	fn    func()
	gen   uint64
	armed bool
	stop  func() bool
}

// NewTimer creates an unarmed timer that will run fn on the loop.
func (l *Loop) NewTimer(fn func()) *Timer {
	return &Timer{loop: l, fn: fn}
}

// Reset (re)arms the timer to fire after d.
func (t *Timer) Reset(d time.Duration) {
	if t.stop != nil {
		t.stop()
	}
	t.gen++
	gen := t.gen
	t.armed = true
	t.stop = t.loop.clock.AfterFunc(d, func() {
		t.loop.Post(func() { t.fire(gen) })
	})
}

// Stop disarms the timer. Safe on an unarmed timer.
func (t *Timer) Stop() {
	t.gen++
	t.armed = false
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

// Armed reports whether an expiry is outstanding.
func (t *Timer) Armed() bool {
	return t.armed
}

func (t *Timer) fire(gen uint64) {
	if !t.armed || gen != t.gen {
		return
	}
	t.armed = false
	t.stop = nil
	if t.fn != nil {
		t.fn()
	}
}
