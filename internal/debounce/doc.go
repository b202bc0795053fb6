// Package debounce turns raw switch samples into committed positions.
//
// Buttons and the rotary switch share one algorithm: a change is committed
// immediately if the last commit is at least one sampling cycle old, and
// otherwise deferred with a single re-armed timer so that a burst collapses
// into one commit carrying the final value. Buttons additionally emit a
// still-pressed heartbeat while held.
package debounce
