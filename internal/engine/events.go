package engine

import "jukebox/internal/id3"

// Event is one notification decoded from the engine's output.
type Event interface {
	isEngineEvent()
}

// StatusEvent is a periodic "@F" frame report.
type StatusEvent struct {
	FramesPlayed  int
	FramesLeft    int
	SecondsPlayed float64
	SecondsLeft   float64
}

// Total returns the total frame count of the current track.
func (e StatusEvent) Total() int { return e.FramesPlayed + e.FramesLeft }

// TotalSeconds returns the track length in seconds.
func (e StatusEvent) TotalSeconds() float64 { return e.SecondsPlayed + e.SecondsLeft }

// StoppedEvent reports that playback stopped. EndOfSong is set when the track
// ran to its natural end.
type StoppedEvent struct {
	EndOfSong bool
}

type PausedEvent struct{}

type UnpausedEvent struct{}

// TitleLoadedEvent is emitted once the tag fragments after a LOAD went quiet.
type TitleLoadedEvent struct {
	Title id3.Title
}

// VersionEvent carries the "@R" greeting.
type VersionEvent struct {
	Name    string
	Version string
}

// ErrorEvent carries an "@E" message verbatim.
type ErrorEvent struct {
	Message string
}

// CommunicationProblemEvent reports a read failure other than end of stream.
type CommunicationProblemEvent struct {
	Err error
}

// TerminatedEvent is emitted after the engine closed its output and was reaped.
type TerminatedEvent struct {
	ExitCode int
	Err      error
}

func (StatusEvent) isEngineEvent()               {}
func (StoppedEvent) isEngineEvent()              {}
func (PausedEvent) isEngineEvent()               {}
func (UnpausedEvent) isEngineEvent()             {}
func (TitleLoadedEvent) isEngineEvent()          {}
func (VersionEvent) isEngineEvent()              {}
func (ErrorEvent) isEngineEvent()                {}
func (CommunicationProblemEvent) isEngineEvent() {}
func (TerminatedEvent) isEngineEvent()           {}
