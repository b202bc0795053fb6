// Package id3 accumulates the tag fragments an mpg123 remote-control session
// prints after loading a track and renders a display title from them.
package id3
