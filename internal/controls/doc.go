// Package controls maps debounced button and rotary switch events onto
// playback commands. Two layouts exist: three controls (two buttons and a
// twelve position album switch) and a single button.
package controls
