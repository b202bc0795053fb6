// Package eventloop provides the single-threaded cooperative loop that owns
// all jukebox playback state.
//
// Input goroutines (button pollers, the engine stdout reader, IPC handlers)
// never touch shared state directly; they Post closures that the loop runs
// one at a time. Timers created with NewTimer deliver their expiry through
// the same queue, so a debouncer or the tag quiescence timer never races the
// code that re-arms it.
package eventloop
