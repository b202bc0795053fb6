package debounce

import (
	"time"

	"jukebox/internal/eventloop"
	"jukebox/internal/observer"
)

// ButtonPosition is the physical state of a push button.
type ButtonPosition int

const (
	Released ButtonPosition = iota
	Pressed
)

func (p ButtonPosition) String() string {
	if p == Pressed {
		return "pressed"
	}
	return "released"
}

// ButtonEventKind distinguishes the notifications a Button emits.
type ButtonEventKind int

const (
	ButtonPressed ButtonEventKind = iota
	ButtonStillPressed
	ButtonReleased
)

// ButtonEvent carries a committed button transition. Held is the accumulated
// hold time for ButtonStillPressed and the full press duration for
// ButtonReleased.
type ButtonEvent struct {
	Kind ButtonEventKind
	Held time.Duration
}

// Button debounces a push button and, while it stays pressed, re-fires a
// heartbeat every check cycle.
type Button struct {
	loop       *eventloop.Loop
	core       *Debouncer[ButtonPosition]
	checkCycle time.Duration
	heartbeat  *eventloop.Timer
	held       time.Duration
	events     observer.Registry[ButtonEvent]
}

// NewButton creates a released button. A checkCycle of zero disables the
// still-pressed heartbeat.
func NewButton(loop *eventloop.Loop, sampling, checkCycle time.Duration) *Button {
	b := &Button{loop: loop, checkCycle: checkCycle}
	b.core = newDebouncer(loop, sampling, Released, b.committed)
	b.heartbeat = loop.NewTimer(b.beat)
	return b
}

// SetPosition feeds a raw sample. Safe from any goroutine; listeners are
// never invoked before SetPosition returns.
func (b *Button) SetPosition(pos ButtonPosition) {
	b.loop.Post(func() { b.core.set(pos) })
}

// Position returns the committed position.
func (b *Button) Position() ButtonPosition {
	return b.core.Position()
}

// Subscribe registers a listener for committed transitions.
func (b *Button) Subscribe(fn func(ButtonEvent)) observer.Subscription {
	return b.events.Subscribe(fn)
}

func (b *Button) committed(pos ButtonPosition, previousCommit time.Time) {
	if pos == Pressed {
		b.held = 0
		b.events.Emit(ButtonEvent{Kind: ButtonPressed})
		if b.checkCycle > 0 {
			b.heartbeat.Reset(b.checkCycle)
		}
		return
	}
	b.heartbeat.Stop()
	b.events.Emit(ButtonEvent{Kind: ButtonReleased, Held: b.loop.Now().Sub(previousCommit)})
}

func (b *Button) beat() {
	if b.core.Raw() != Pressed {
		return
	}
	b.held += b.checkCycle
	b.events.Emit(ButtonEvent{Kind: ButtonStillPressed, Held: b.held})
	b.heartbeat.Reset(b.checkCycle)
}
