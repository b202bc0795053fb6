package controls

import (
	"log/slog"
	"time"

	"jukebox/internal/debounce"
	"jukebox/internal/logging"
	"jukebox/internal/observer"
)

// Defaults for physical inputs.
const (
	DefaultSampling      = 10 * time.Millisecond
	DefaultCheckCycle    = 1000 * time.Millisecond
	DefaultLongPress     = 1 * time.Second
	DefaultVeryLongPress = 10 * time.Second
)

// Player is the part of the playback orchestrator driven by controls.
type Player interface {
	Pause()
	Back() bool
	FastForward()
	FastBackwards()
	StopFastPlay()
	JumpToAlbum(n int) bool
	PresentNextAlbum() bool
	ResumeAlbum() bool
}

// ThreeControls maps two buttons and a rotary switch onto the player.
// A short press on either button toggles pause; holding button 1 plays
// backwards fast and holding button 2 plays forwards fast until release.
// The rotary switch selects the album.
type ThreeControls struct {
	player    Player
	logger    *slog.Logger
	longPress time.Duration
	fast      [2]bool
	subs      []observer.Subscription
}

// NewThreeControls wires the inputs to player. Listeners run on the loop
// that owns the inputs.
func NewThreeControls(player Player, button1, button2 *debounce.Button, rotary *debounce.RotarySwitch, longPress time.Duration, logger *slog.Logger) *ThreeControls {
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	c := &ThreeControls{
		player:    player,
		logger:    logging.NewComponentLogger(logger, "controls"),
		longPress: longPress,
	}
	c.subs = append(c.subs,
		button1.Subscribe(func(ev debounce.ButtonEvent) { c.onButton(0, ev, player.FastBackwards) }),
		button2.Subscribe(func(ev debounce.ButtonEvent) { c.onButton(1, ev, player.FastForward) }),
		rotary.Subscribe(c.onRotary),
	)
	return c
}

// Close detaches from the inputs.
func (c *ThreeControls) Close() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
}

func (c *ThreeControls) onButton(idx int, ev debounce.ButtonEvent, fast func()) {
	switch ev.Kind {
	case debounce.ButtonPressed:
		c.fast[idx] = false
	case debounce.ButtonStillPressed:
		if ev.Held >= c.longPress && !c.fast[idx] {
			c.fast[idx] = true
			c.logger.Debug("long press", logging.Int("button", idx+1), logging.Duration("held", ev.Held))
			fast()
		}
	case debounce.ButtonReleased:
		if c.fast[idx] || ev.Held >= c.longPress {
			c.player.StopFastPlay()
		} else {
			c.player.Pause()
		}
		c.fast[idx] = false
	}
}

func (c *ThreeControls) onRotary(position int) {
	c.logger.Debug("album selected", logging.Int("position", position))
	c.player.JumpToAlbum(position)
}

// OneButton drives the player from a single button. A short press toggles
// pause and a long press steps back. Holding longer than the very long press
// enters album selection, where a short press presents the next album and a
// long press resumes the presented one.
type OneButton struct {
	player        Player
	logger        *slog.Logger
	longPress     time.Duration
	veryLongPress time.Duration
	selecting     bool
	sub           observer.Subscription
}

// NewOneButton wires button to player.
func NewOneButton(player Player, button *debounce.Button, longPress, veryLongPress time.Duration, logger *slog.Logger) *OneButton {
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	if veryLongPress <= longPress {
		veryLongPress = DefaultVeryLongPress
	}
	c := &OneButton{
		player:        player,
		logger:        logging.NewComponentLogger(logger, "controls"),
		longPress:     longPress,
		veryLongPress: veryLongPress,
	}
	c.sub = button.Subscribe(c.onButton)
	return c
}

// Selecting reports whether album selection mode is active.
func (c *OneButton) Selecting() bool {
	return c.selecting
}

// Close detaches from the button.
func (c *OneButton) Close() {
	c.sub.Unsubscribe()
}

func (c *OneButton) onButton(ev debounce.ButtonEvent) {
	if ev.Kind != debounce.ButtonReleased {
		return
	}
	switch {
	case ev.Held > c.veryLongPress:
		c.selecting = true
		c.logger.Info("album selection started", logging.String(logging.FieldEventType, "album_selection"))
		c.player.Pause()
	case c.selecting && ev.Held < c.longPress:
		c.player.PresentNextAlbum()
	case c.selecting:
		c.selecting = false
		c.player.ResumeAlbum()
	case ev.Held < c.longPress:
		c.player.Pause()
	default:
		c.player.Back()
	}
}
