package ipc

import (
	"time"

	"jukebox/internal/logging"
)

// Command names accepted by Jukebox.Command.
const (
	CommandPause         = "pause"
	CommandResume        = "resume"
	CommandNext          = "next"
	CommandBack          = "back"
	CommandFastForward   = "fast_forward"
	CommandFastBackwards = "fast_backwards"
	CommandStopFast      = "stop_fast"
	CommandAlbum         = "album"
	CommandPresent       = "present"
	CommandResumeAlbum   = "resume_album"
	CommandSay           = "say"
)

// Commands lists every command name in help order.
var Commands = []string{
	CommandPause,
	CommandResume,
	CommandNext,
	CommandBack,
	CommandFastForward,
	CommandFastBackwards,
	CommandStopFast,
	CommandAlbum,
	CommandPresent,
	CommandResumeAlbum,
	CommandSay,
}

// StatusRequest requests daemon status.
type StatusRequest struct{}

// StatusResponse describes the daemon and the current playback state.
type StatusResponse struct {
	PID          int       `json:"pid"`
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	State        string    `json:"state"`
	AlbumID      string    `json:"album_id"`
	AlbumName    string    `json:"album_name"`
	AlbumNumber  int       `json:"album_number"`
	AlbumCount   int       `json:"album_count"`
	Track        string    `json:"track"`
	TrackNumber  int       `json:"track_number"`
	TrackCount   int       `json:"track_count"`
	Title        string    `json:"title"`
	Frame        int       `json:"frame"`
	FramesTotal  int       `json:"frames_total"`
	Seconds      float64   `json:"seconds"`
	SecondsTotal float64   `json:"seconds_total"`
	FastFactor   int       `json:"fast_factor"`
	WrapAlbum    bool      `json:"wrap_album"`
	Layout       string    `json:"layout"`
	AlbumsDir    string    `json:"albums_dir"`
	HistoryPath  string    `json:"history_path,omitempty"`
	LogPath      string    `json:"log_path,omitempty"`
}

// CommandRequest drives the orchestrator. Arg carries the album number for
// "album" and the number to speak for "say"; other commands ignore it.
type CommandRequest struct {
	Name string `json:"name"`
	Arg  int    `json:"arg,omitempty"`
}

// CommandResponse reports whether the orchestrator accepted the command.
type CommandResponse struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
	Message  string `json:"message,omitempty"`
}

// CatalogRequest requests the album list.
type CatalogRequest struct{}

// Album is the wire form of one catalog album.
type Album struct {
	Number int    `json:"number"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks int    `json:"tracks"`
}

// CatalogResponse lists the albums in play order.
type CatalogResponse struct {
	Root   string  `json:"root"`
	Albums []Album `json:"albums"`
}

// HistoryRequest asks for recent plays or the most played tracks.
type HistoryRequest struct {
	Limit int  `json:"limit"`
	Top   bool `json:"top"`
}

// Play is the wire form of one history entry.
type Play struct {
	AlbumID  string    `json:"album_id"`
	Track    string    `json:"track"`
	Title    string    `json:"title"`
	Plays    int       `json:"plays,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

// HistoryResponse returns history rows, newest or most played first.
type HistoryResponse struct {
	Enabled bool   `json:"enabled"`
	Total   int    `json:"total"`
	Plays   []Play `json:"plays"`
}

// LogTailRequest reads buffered daemon log events after Since. With Follow
// the call blocks up to WaitMillis for new events.
type LogTailRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// LogTailResponse carries log events and the cursor for the next request.
type LogTailResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges a shutdown request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
