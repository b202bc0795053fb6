// Package preflight provides readiness checks for the filesystem paths,
// programs and devices the jukebox depends on.
//
// The daemon runs RunAll before starting and refuses to start when the
// albums directory or the audio engine is unusable. The CLI status command
// shows the same results. An absent input device is reported but does not
// stop the daemon, since it may be plugged in later.
package preflight
