package frontend

import (
	"fmt"

	"jukebox/internal/config"
	"jukebox/internal/debounce"
)

// Linux input key event values.
const (
	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

type binding struct {
	button int // index into Inputs.Buttons, -1 when unused
	rotary int // switch position, 0 when unused
}

// KeyMap translates key codes of an input device into button and rotary
// samples.
type KeyMap struct {
	bindings map[uint16]binding
}

// NewKeyMap builds the mapping from the frontend configuration. Rotary codes
// map to positions 1..n in order.
func NewKeyMap(cfg config.Frontend) (KeyMap, error) {
	m := KeyMap{bindings: make(map[uint16]binding)}
	add := func(code int, b binding) error {
		if code <= 0 || code > 0xffff {
			return fmt.Errorf("key code %d out of range", code)
		}
		if _, dup := m.bindings[uint16(code)]; dup {
			return fmt.Errorf("key code %d bound twice", code)
		}
		m.bindings[uint16(code)] = b
		return nil
	}
	if err := add(cfg.Button1Code, binding{button: 0}); err != nil {
		return KeyMap{}, err
	}
	if cfg.Button2Code != 0 {
		if err := add(cfg.Button2Code, binding{button: 1}); err != nil {
			return KeyMap{}, err
		}
	}
	for i, code := range cfg.RotaryCodes {
		if err := add(code, binding{button: -1, rotary: i + 1}); err != nil {
			return KeyMap{}, err
		}
	}
	return m, nil
}

// Apply feeds one key event into inputs and reports whether the code was
// bound. Auto-repeat is ignored. A rotary contact only reports the position
// it closes; opening a contact says nothing about the new position.
func (m KeyMap) Apply(inputs Inputs, code uint16, value int32) bool {
	b, ok := m.bindings[code]
	if !ok {
		return false
	}
	if value == keyRepeat {
		return true
	}
	if b.rotary > 0 {
		if value == keyDown {
			inputs.setRotary(b.rotary)
		}
		return true
	}
	pos := debounce.Pressed
	if value == keyUp {
		pos = debounce.Released
	}
	inputs.setButton(b.button, pos)
	return true
}
