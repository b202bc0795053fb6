// Package frontend feeds raw input samples into the debounced buttons and
// rotary switch.
//
// Two sources exist. The keyboard source emulates the hardware from a raw
// mode terminal, which is how the jukebox is exercised on a desktop. The
// evdev source reads a gpio-keys style input device on Linux and reopens it
// when udev reports that an input device appeared. Sources never touch
// playback state; they only call SetPosition, which posts onto the loop.
package frontend
