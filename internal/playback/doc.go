// Package playback turns user commands and audio engine events into track
// navigation.
//
// The Orchestrator walks the sorted tracks of the current album, ramps fast
// play up by doubling the skip factor, announces track numbers through
// spoken-number clips and browses albums. The playback position is written
// to two-slot durable records (see package durable) on title loads, on
// status ticks every hundred frames and on every explicit navigation, but
// never while browsing, announcing or fast-playing.
//
// The orchestrator is not safe for concurrent use; the daemon runs it on the
// event loop.
package playback
