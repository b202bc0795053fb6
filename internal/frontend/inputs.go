package frontend

import (
	"jukebox/internal/debounce"
)

// Inputs are the debounced signals a source drives. Buttons[0] is button 1.
// Either field may be empty for layouts that lack the control.
type Inputs struct {
	Buttons []*debounce.Button
	Rotary  *debounce.RotarySwitch
}

func (in Inputs) setButton(idx int, pos debounce.ButtonPosition) bool {
	if idx < 0 || idx >= len(in.Buttons) || in.Buttons[idx] == nil {
		return false
	}
	in.Buttons[idx].SetPosition(pos)
	return true
}

func (in Inputs) setRotary(pos int) bool {
	if in.Rotary == nil {
		return false
	}
	in.Rotary.SetPosition(pos)
	return true
}
