package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"jukebox/internal/debounce"
	"jukebox/internal/logging"
)

// KeyboardHelp describes the key bindings. Lines end in CRLF because the
// terminal is in raw mode while the keyboard source runs.
const KeyboardHelp = "Jukebox keyboard controls\r\n" +
	"  j / k    toggle button 1 / button 2\r\n" +
	"  1-9 a-c  rotary switch position 1..12\r\n" +
	"  q        quit\r\n"

const ctrlC = 0x03

// Keyboard emulates the buttons and the rotary switch from single key
// strokes. Each button key toggles between pressed and released so long
// holds can be tried without key repeat.
type Keyboard struct {
	in      io.Reader
	inputs  Inputs
	onQuit  func()
	logger  *slog.Logger
	pressed []bool
}

// NewKeyboard creates a keyboard source reading from in. onQuit runs when
// q or Ctrl-C is read.
func NewKeyboard(in io.Reader, inputs Inputs, onQuit func(), logger *slog.Logger) *Keyboard {
	return &Keyboard{
		in:      in,
		inputs:  inputs,
		onQuit:  onQuit,
		logger:  logging.NewComponentLogger(logger, "keyboard"),
		pressed: make([]bool, len(inputs.Buttons)),
	}
}

// Run reads keys until EOF, quit or ctx cancellation. A blocked read is
// not interrupted by ctx; the caller abandons the goroutine at shutdown.
func (k *Keyboard) Run(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := k.in.Read(buf)
		if n == 1 && !k.HandleKey(buf[0]) {
			if k.onQuit != nil {
				k.onQuit()
			}
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read keyboard: %w", err)
		}
	}
}

// HandleKey applies one key stroke and reports false for quit.
func (k *Keyboard) HandleKey(key byte) bool {
	switch {
	case key == 'q' || key == ctrlC:
		return false
	case key == 'j' || key == 'k':
		idx := 0
		if key == 'k' {
			idx = 1
		}
		if idx >= len(k.pressed) {
			return true
		}
		k.pressed[idx] = !k.pressed[idx]
		pos := debounce.Released
		if k.pressed[idx] {
			pos = debounce.Pressed
		}
		k.inputs.setButton(idx, pos)
		k.logger.Debug("button toggled",
			logging.Int("button", idx+1),
			logging.String("position", pos.String()))
	case key >= '1' && key <= '9':
		k.rotary(int(key - '0'))
	case key >= 'a' && key <= 'c':
		k.rotary(int(key-'a') + 10)
	}
	return true
}

func (k *Keyboard) rotary(pos int) {
	if k.inputs.setRotary(pos) {
		k.logger.Debug("rotary moved", logging.Int("position", pos))
	}
}

// MakeRaw puts f into raw mode when it is a terminal. The returned restore
// function is safe to call when f was not a terminal.
func MakeRaw(f *os.File) (func() error, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enable raw mode: %w", err)
	}
	return func() error { return term.Restore(fd, state) }, nil
}
