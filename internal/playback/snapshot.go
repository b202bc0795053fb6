package playback

// State is the coarse orchestrator state reported to clients.
type State string

const (
	StateStopped    State = "stopped"
	StatePlaying    State = "playing"
	StatePaused     State = "paused"
	StatePresenting State = "presenting_albums"
	StateAnnouncing State = "announcing"
	StateFastPlay   State = "fast_playing"
)

// Snapshot is a point-in-time copy of the playback state.
type Snapshot struct {
	State        State
	AlbumID      string
	AlbumName    string
	AlbumNumber  int
	AlbumCount   int
	Track        string
	TrackNumber  int
	TrackCount   int
	Title        string
	Frame        int
	FramesTotal  int
	Seconds      float64
	SecondsTotal float64
	FastFactor   int
	WrapAlbum    bool
}

// State derives the current coarse state.
func (o *Orchestrator) State() State {
	switch {
	case o.announcing:
		return StateAnnouncing
	case o.fastFactor != 0:
		return StateFastPlay
	case o.presenting:
		return StatePresenting
	case o.current == nil || o.stopped:
		return StateStopped
	case o.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// FastPlayFactor returns the signed fast-play factor, 0 at normal speed.
func (o *Orchestrator) FastPlayFactor() int {
	return o.fastFactor
}

// Current returns the current title position.
func (o *Orchestrator) Current() (TitlePosition, bool) {
	if o.current == nil {
		return TitlePosition{}, false
	}
	return *o.current, true
}

// Snapshot copies the state for reporting. Loop goroutine only.
func (o *Orchestrator) Snapshot() Snapshot {
	snap := Snapshot{
		State:        o.State(),
		AlbumCount:   o.catalog.Len(),
		Title:        o.title,
		Frame:        o.framesPlayed,
		FramesTotal:  o.framesTotal,
		Seconds:      o.secondsPlay,
		SecondsTotal: o.secondsTotal,
		FastFactor:   o.fastFactor,
		WrapAlbum:    o.wrapAlbum,
	}
	album, ok := o.catalog.Album(o.album)
	if !ok {
		return snap
	}
	snap.AlbumID = album.ID
	snap.AlbumName = album.DisplayName()
	snap.AlbumNumber = o.album + 1
	snap.TrackCount = len(album.Tracks)
	if o.current != nil {
		snap.Track = o.current.Track
		if idx, found := album.TrackIndex(o.current.Track); found {
			snap.TrackNumber = idx + 1
		}
	}
	return snap
}
