// Package engine drives the external audio engine (mpg123 in remote-control
// mode) over its standard streams.
//
// Commands are single newline-terminated lines (LOAD, PAUSE, JUMP). Output is
// read on a helper goroutine, reassembled into complete lines, and decoded on
// the event loop into typed events: frame status, play-state changes, the
// loaded title (after the tag fragments settle), version, engine errors and
// process termination. The driver never restarts the engine; callers decide
// what termination means.
package engine
