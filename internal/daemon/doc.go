// Package daemon coordinates the long-running jukebox process.
//
// It wires configuration, the event loop, the audio engine driver, the
// playback orchestrator, input controls and frontends, the play history
// recorder and the control socket into a single lifecycle, with a flock
// based lock file preventing a second instance. All playback state lives on
// the event loop; control socket requests hop onto it with Loop.Call.
//
// The engine is not restarted. When it terminates on its own, Run returns
// ErrEngineTerminated and the service manager decides what happens next.
package daemon
