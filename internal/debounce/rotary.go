package debounce

import (
	"time"

	"jukebox/internal/eventloop"
	"jukebox/internal/observer"
)

// Rotary switch bounds. Out-of-range samples clamp to the nearest bound.
const (
	MinRotaryPosition = 1
	MaxRotaryPosition = 12
)

// RotarySwitch debounces a multi-position selector.
type RotarySwitch struct {
	loop   *eventloop.Loop
	core   *Debouncer[int]
	events observer.Registry[int]
}

// NewRotarySwitch creates a switch resting at position 1.
func NewRotarySwitch(loop *eventloop.Loop, sampling time.Duration) *RotarySwitch {
	r := &RotarySwitch{loop: loop}
	r.core = newDebouncer(loop, sampling, MinRotaryPosition, func(pos int, _ time.Time) {
		r.events.Emit(pos)
	})
	return r
}

// SetPosition feeds a raw sample. Safe from any goroutine.
func (r *RotarySwitch) SetPosition(pos int) {
	pos = ClampRotary(pos)
	r.loop.Post(func() { r.core.set(pos) })
}

// Position returns the committed position.
func (r *RotarySwitch) Position() int {
	return r.core.Position()
}

// Subscribe registers a listener for committed position changes.
func (r *RotarySwitch) Subscribe(fn func(int)) observer.Subscription {
	return r.events.Subscribe(fn)
}

// ClampRotary limits pos to the valid switch range.
func ClampRotary(pos int) int {
	switch {
	case pos < MinRotaryPosition:
		return MinRotaryPosition
	case pos > MaxRotaryPosition:
		return MaxRotaryPosition
	default:
		return pos
	}
}
