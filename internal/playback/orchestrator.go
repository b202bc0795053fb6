package playback

import (
	"log/slog"
	"time"

	"jukebox/internal/catalog"
	"jukebox/internal/durable"
	"jukebox/internal/engine"
	"jukebox/internal/eventloop"
	"jukebox/internal/logging"
)

// Durable record names.
const (
	CurrentAlbumFile = "current-album.cfg"
	CurrentTitleFile = "current-title.cfg"
)

// Tunables with their defaults.
const (
	DefaultPersistFrames   = 100
	DefaultBackRestart     = 30.0 // seconds
	DefaultRampInterval    = 3 * time.Second
	InitialFastPlayFactor  = 2
	MaxFastPlayFactor      = 8192
	fastPlayJumpsPerSecond = 8
)

// Engine is the command surface of the audio engine driver. Fast-play steps
// inside a track are relative jumps; seeks that clamp to a track edge or
// restore a saved position are absolute.
type Engine interface {
	Load(path string) error
	Pause() error
	JumpTo(frame int) error
	JumpForward(frames int) error
	JumpBackward(frames int) error
}

// Play describes a track that started playing normally.
type Play struct {
	AlbumID string
	Track   string
	Title   string
	At      time.Time
}

// Recorder receives plays for the history log.
type Recorder interface {
	RecordPlay(Play)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWrapAlbum makes natural end-of-track wrap from the last track to the
// first.
func WithWrapAlbum(wrap bool) Option {
	return func(o *Orchestrator) { o.wrapAlbum = wrap }
}

// WithClips sets the spoken-number clips. Without clips announcements are
// silent.
func WithClips(clips *catalog.Clips) Option {
	return func(o *Orchestrator) { o.clips = clips }
}

// WithRecorder attaches a play history recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithPersistFrames overrides how many frames must pass between periodic
// position writes.
func WithPersistFrames(frames int) Option {
	return func(o *Orchestrator) {
		if frames > 0 {
			o.persistFrames = frames
		}
	}
}

// WithRampInterval overrides how long each fast-play speed lasts before it
// doubles.
func WithRampInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.rampInterval = d
		}
	}
}

type fastPhase int

const (
	fastTicking fastPhase = iota
	fastAwaitingLoad
	fastAwaitingLoadThenJump
	fastLoadedThenJump
	fastAwaitingJump
)

type clipToken struct {
	number    int
	remainder bool
}

// Orchestrator owns all playback state. Every method, including the engine
// event handler, must run on the event loop goroutine.
type Orchestrator struct {
	engine   Engine
	catalog  *catalog.Catalog
	clips    *catalog.Clips
	clock    eventloop.Clock
	logger   *slog.Logger
	recorder Recorder

	wrapAlbum     bool
	persistFrames int
	rampInterval  time.Duration

	albumRecord  *durable.Record
	titleRecords map[int]*durable.Record

	album      int
	current    *TitlePosition
	title      string
	presenting bool
	paused     bool
	stopped    bool

	framesPlayed int
	framesTotal  int
	secondsPlay  float64
	secondsTotal float64
	lastPersist  int

	fastFactor int
	rampStart  time.Time
	fastTitles int
	phase      fastPhase
	jumpTarget int

	announcing    bool
	clipLoaded    bool
	clipPlayed    bool
	reloadPending bool
	resumePaused  bool
	resumeStopped bool
	queue         []clipToken
}

// New creates an orchestrator over cat and selects the album recorded in the
// durable current-album file, falling back to the first album. Nothing is
// sent to the engine until Resume.
func New(eng Engine, cat *catalog.Catalog, clock eventloop.Clock, logger *slog.Logger, opts ...Option) *Orchestrator {
	if clock == nil {
		clock = eventloop.SystemClock()
	}
	o := &Orchestrator{
		engine:        eng,
		catalog:       cat,
		clock:         clock,
		logger:        logging.NewComponentLogger(logger, "playback"),
		persistFrames: DefaultPersistFrames,
		rampInterval:  DefaultRampInterval,
		titleRecords:  make(map[int]*durable.Record),
		album:         -1,
		stopped:       true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if cat.Len() == 0 {
		return o
	}
	o.albumRecord = durable.Open(cat.Root(), CurrentAlbumFile)
	o.album = 0
	if id, ok := o.albumRecord.Value(); ok {
		if idx, found := cat.Lookup(id); found {
			o.album = idx
		} else {
			o.logger.Info("recorded album no longer exists, using first album",
				logging.String("album", id),
			)
		}
	}
	return o
}

// Resume loads the persisted position of the current album. It returns false
// when the catalog is empty.
func (o *Orchestrator) Resume() bool {
	if o.album < 0 {
		return false
	}
	o.cancelSequences()
	o.presenting = false
	pos, ok := o.persistedPosition(o.album)
	if !ok {
		return false
	}
	o.current = &pos
	o.play(pos)
	o.persistAlbum()
	album, _ := o.catalog.Album(o.album)
	o.logger.Info("resuming album",
		logging.String(logging.FieldEventType, "album_resumed"),
		logging.String("album", album.ID),
		logging.String("track", pos.Track),
		logging.Int("frame", pos.Frame),
	)
	return true
}

// Pause toggles between paused and playing. An announcement or fast play in
// progress is abandoned first.
func (o *Orchestrator) Pause() {
	if o.current == nil {
		return
	}
	wasPaused := o.paused
	if o.announcing {
		wasPaused = o.resumePaused
	}
	wasFast := o.fastFactor != 0
	if o.cancelSequences() {
		o.play(*o.current)
		if !wasPaused {
			o.send(o.engine.Pause())
			o.paused = true
		}
	} else {
		o.send(o.engine.Pause())
		o.paused = !wasPaused
	}
	if wasFast {
		o.persistTitle()
	}
}

// Next moves to the following track of the current album. At the last track
// it wraps to the first when wrap is set and otherwise returns false without
// touching the engine.
func (o *Orchestrator) Next(wrap bool) bool {
	album, idx, ok := o.currentTrack()
	if !ok {
		return false
	}
	next := idx + 1
	if next >= len(album.Tracks) {
		if !wrap {
			return false
		}
		next = 0
	}
	o.cancelSequences()
	o.moveTo(NewTitlePosition(album.Tracks[next], 0))
	return true
}

// Back restarts the current track when more than 30 seconds have played and
// otherwise moves to the previous track. The first track just restarts.
func (o *Orchestrator) Back() bool {
	album, idx, ok := o.currentTrack()
	if !ok {
		return false
	}
	restored := o.cancelSequences()
	if o.secondsPlay > DefaultBackRestart || idx == 0 {
		pos := o.current.AtFrame(0)
		if restored || o.stopped {
			o.moveTo(pos)
			return true
		}
		o.current = &pos
		o.send(o.engine.JumpTo(0))
		o.framesPlayed = 0
		o.secondsPlay = 0
		o.persistTitle()
		return true
	}
	o.moveTo(NewTitlePosition(album.Tracks[idx-1], 0))
	return true
}

// FastForward starts or restarts forward fast play at factor 2.
func (o *Orchestrator) FastForward() {
	o.startFastPlay(InitialFastPlayFactor)
}

// FastBackwards starts or restarts backward fast play at factor 2.
func (o *Orchestrator) FastBackwards() {
	o.startFastPlay(-InitialFastPlayFactor)
}

// StopFastPlay returns to normal speed and persists the reached position.
func (o *Orchestrator) StopFastPlay() {
	if o.fastFactor == 0 {
		return
	}
	o.logger.Debug("fast play stopped", logging.Int("factor", o.fastFactor))
	if o.cancelSequences() {
		o.play(*o.current)
	}
	o.persistTitle()
}

// JumpToAlbum switches to album n (1-based, clamped) at its persisted
// position.
func (o *Orchestrator) JumpToAlbum(n int) bool {
	count := o.catalog.Len()
	if count == 0 {
		return false
	}
	idx := n - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= count {
		idx = count - 1
	}
	o.cancelSequences()
	if !o.presenting && o.current != nil && !o.stopped {
		pos := o.current.AtFrame(o.framesPlayed)
		o.current = &pos
		o.persistTitle()
	}
	o.album = idx
	return o.Resume()
}

// PresentNextAlbum enters browse mode and plays the first track of the next
// album, wrapping at the end. The album becomes the durable current album;
// its remembered track position is left alone.
func (o *Orchestrator) PresentNextAlbum() bool {
	count := o.catalog.Len()
	if count == 0 {
		return false
	}
	o.cancelSequences()
	if !o.presenting && o.current != nil && !o.stopped {
		pos := o.current.AtFrame(o.framesPlayed)
		o.current = &pos
		o.persistTitle()
	}
	o.presenting = true
	o.album = (o.album + 1) % count
	album, _ := o.catalog.Album(o.album)
	pos := NewTitlePosition(album.Tracks[0], 0)
	o.current = &pos
	o.play(pos)
	o.persistAlbum()
	o.logger.Info("presenting album",
		logging.String(logging.FieldEventType, "album_presented"),
		logging.String("album", album.ID),
		logging.Int("album_number", o.album+1),
	)
	return true
}

// ResumeAlbum leaves browse mode and resumes the selected album.
func (o *Orchestrator) ResumeAlbum() bool {
	o.presenting = false
	return o.Resume()
}

// Say announces n through the clips, then restores the interrupted playback.
func (o *Orchestrator) Say(n int) {
	if !o.announcing {
		o.announcing = true
		o.clipPlayed = false
		o.resumePaused = o.paused
		o.resumeStopped = o.stopped
		if o.current != nil && o.fastFactor == 0 && !o.stopped {
			pos := o.current.AtFrame(o.framesPlayed)
			o.current = &pos
		}
	}
	for i, number := range SayTokens(n) {
		o.queue = append(o.queue, clipToken{number: number, remainder: i > 0})
	}
	if !o.clipLoaded {
		o.playNextClip()
	}
}

// HandleEngineEvent feeds one driver event into the state machine.
func (o *Orchestrator) HandleEngineEvent(ev engine.Event) {
	switch e := ev.(type) {
	case engine.StatusEvent:
		o.onStatus(e)
	case engine.StoppedEvent:
		o.onStopped(e.EndOfSong)
	case engine.PausedEvent:
		if !o.clipLoaded {
			o.paused = true
		}
	case engine.UnpausedEvent:
		if !o.clipLoaded {
			o.paused = false
		}
	case engine.TitleLoadedEvent:
		o.onTitleLoaded(e)
	case engine.ErrorEvent:
		if o.clipLoaded {
			// An unreadable clip must not stall the announcement.
			o.clipLoaded = false
			o.playNextClip()
		}
	case engine.CommunicationProblemEvent:
		logging.WarnWithContext(o.logger, "lost contact with audio engine", "engine_communication_problem",
			logging.Error(e.Err),
			logging.String(logging.FieldImpact, "playback commands have no effect"),
		)
	case engine.TerminatedEvent:
		logging.WarnWithContext(o.logger, "audio engine terminated", "engine_terminated",
			logging.Int("exit_code", e.ExitCode),
			logging.String(logging.FieldImpact, "playback stopped"),
		)
		o.stopped = true
	}
}

func (o *Orchestrator) onStatus(e engine.StatusEvent) {
	if o.clipLoaded {
		return
	}
	o.stopped = false
	o.framesPlayed = e.FramesPlayed
	o.framesTotal = e.Total()
	o.secondsPlay = e.SecondsPlayed
	o.secondsTotal = e.TotalSeconds()
	if o.current == nil {
		return
	}
	if o.fastFactor != 0 {
		o.fastTick()
		return
	}
	if o.presenting || o.announcing {
		return
	}
	if abs(e.FramesPlayed-o.lastPersist) > o.persistFrames {
		pos := o.current.AtFrame(e.FramesPlayed)
		o.current = &pos
		o.persistTitle()
	}
}

func (o *Orchestrator) onStopped(endOfSong bool) {
	if o.clipLoaded {
		if endOfSong {
			o.clipLoaded = false
			o.playNextClip()
		}
		return
	}
	if !endOfSong {
		o.stopped = true
		return
	}
	if o.presenting {
		o.stopped = true
		return
	}
	if o.fastFactor != 0 {
		o.StopFastPlay()
	}
	if !o.Next(o.wrapAlbum) {
		o.stopped = true
		o.logger.Info("end of album reached", logging.String(logging.FieldEventType, "album_finished"))
	}
}

func (o *Orchestrator) onTitleLoaded(e engine.TitleLoadedEvent) {
	if o.clipLoaded {
		return
	}
	o.title = e.Title.String()
	switch o.phase {
	case fastAwaitingLoad:
		o.phase = fastTicking
	case fastAwaitingLoadThenJump:
		o.phase = fastLoadedThenJump
	}
	if o.current == nil {
		return
	}
	o.logger.Info("playing title",
		logging.String(logging.FieldEventType, "title_loaded"),
		logging.String("title", o.title),
		logging.String("track", o.current.Track),
	)
	o.persistTitle()
	if o.recorder != nil && !o.presenting && o.fastFactor == 0 {
		album, _ := o.catalog.Album(o.album)
		o.recorder.RecordPlay(Play{AlbumID: album.ID, Track: o.current.Track, Title: o.title, At: o.clock.Now()})
	}
}

// fastTick performs one ramp step from a status tick.
func (o *Orchestrator) fastTick() {
	now := o.clock.Now()
	if now.Sub(o.rampStart) >= o.rampInterval && abs(o.fastFactor) < MaxFastPlayFactor {
		o.fastFactor *= 2
		o.rampStart = now
		o.logger.Debug("fast play ramp", logging.Int("factor", o.fastFactor))
	}
	fps := o.framesPerSecond()
	switch o.phase {
	case fastAwaitingLoad, fastAwaitingLoadThenJump:
		return
	case fastLoadedThenJump:
		o.jumpTarget = max(o.framesTotal-fps, 0)
		o.phase = fastAwaitingJump
		o.jumpFast(o.jumpTarget)
		return
	case fastAwaitingJump:
		if abs(o.framesPlayed-o.jumpTarget) > fps {
			return
		}
		o.phase = fastTicking
	}

	step := fps / fastPlayJumpsPerSecond * o.fastFactor
	if step == 0 {
		step = sign(o.fastFactor)
	}
	target := o.framesPlayed + step
	switch {
	case target > o.framesTotal:
		if !o.crossTrack(1) {
			o.jumpFast(max(o.framesTotal-fps, 0))
		}
	case target < 0:
		if !o.crossTrack(-1) {
			o.jumpFast(0)
		}
	default:
		pos := o.current.AtFrame(target)
		o.current = &pos
		if step > 0 {
			o.send(o.engine.JumpForward(step))
		} else {
			o.send(o.engine.JumpBackward(-step))
		}
	}
}

func (o *Orchestrator) jumpFast(frame int) {
	pos := o.current.AtFrame(frame)
	o.current = &pos
	o.send(o.engine.JumpTo(pos.Frame))
}

// crossTrack moves fast play into a neighbouring track. The step grows with
// the number of tracks already fast-played.
func (o *Orchestrator) crossTrack(direction int) bool {
	album, idx, ok := o.currentTrack()
	if !ok {
		return false
	}
	step := 1
	switch {
	case o.fastTitles > 100:
		step = 100
	case o.fastTitles > 10:
		step = 10
	}
	next := idx + direction*step
	if next >= len(album.Tracks) {
		next = len(album.Tracks) - 1
	}
	if next < 0 {
		next = 0
	}
	if next == idx {
		return false
	}
	o.fastTitles++
	pos := NewTitlePosition(album.Tracks[next], 0)
	o.current = &pos
	o.framesPlayed = 0
	if direction > 0 {
		o.phase = fastAwaitingLoad
	} else {
		o.phase = fastAwaitingLoadThenJump
	}
	o.reloadPending = true
	o.logger.Debug("fast play crossed track",
		logging.String("track", pos.Track),
		logging.Int("step", step),
	)
	o.Say(next + 1)
	return true
}

func (o *Orchestrator) startFastPlay(factor int) {
	if o.current == nil {
		return
	}
	if o.cancelSequences() {
		o.play(*o.current)
	}
	if o.paused {
		o.send(o.engine.Pause())
		o.paused = false
	}
	o.fastFactor = factor
	o.rampStart = o.clock.Now()
	o.fastTitles = 0
	o.phase = fastTicking
	o.logger.Debug("fast play started", logging.Int("factor", factor))
}

func (o *Orchestrator) playNextClip() {
	for len(o.queue) > 0 {
		token := o.queue[0]
		o.queue = o.queue[1:]
		if token.remainder && token.number == 0 {
			continue
		}
		path, ok := o.clips.Path(token.number)
		if !ok {
			o.logger.Debug("no clip for number", logging.Int("number", token.number))
			continue
		}
		o.clipLoaded = true
		o.clipPlayed = true
		o.send(o.engine.Load(path))
		return
	}
	o.finishAnnouncement()
}

// finishAnnouncement reloads the interrupted title when a clip replaced it.
// Playback that was stopped before the announcement stays stopped.
func (o *Orchestrator) finishAnnouncement() {
	paused, stopped := o.resumePaused, o.resumeStopped
	if !o.abortAnnouncement() {
		return
	}
	if stopped {
		o.stopped = true
		return
	}
	o.play(*o.current)
	if paused && o.fastFactor == 0 {
		o.send(o.engine.Pause())
		o.paused = true
	}
}

// cancelSequences ends fast play and any announcement by state transition.
// It reports whether a clip replaced the current title, in which case the
// caller must reload it.
func (o *Orchestrator) cancelSequences() bool {
	o.fastFactor = 0
	o.phase = fastTicking
	return o.abortAnnouncement()
}

func (o *Orchestrator) abortAnnouncement() bool {
	if !o.announcing {
		return false
	}
	restore := o.clipPlayed || o.reloadPending
	o.announcing = false
	o.clipLoaded = false
	o.clipPlayed = false
	o.reloadPending = false
	o.queue = nil
	return restore && o.current != nil
}

// moveTo starts pos from scratch and persists it.
func (o *Orchestrator) moveTo(pos TitlePosition) {
	o.current = &pos
	o.play(pos)
	o.persistTitle()
}

func (o *Orchestrator) play(pos TitlePosition) {
	album, ok := o.catalog.Album(o.album)
	if !ok {
		return
	}
	idx, ok := album.TrackIndex(pos.Track)
	if !ok {
		return
	}
	path, _ := album.TrackPath(idx)
	o.send(o.engine.Load(path))
	if pos.Frame > 0 {
		o.send(o.engine.JumpTo(pos.Frame))
	}
	o.paused = false
	o.stopped = false
	o.framesPlayed = pos.Frame
	o.secondsPlay = 0
	o.lastPersist = pos.Frame
}

func (o *Orchestrator) currentTrack() (catalog.Album, int, bool) {
	if o.current == nil {
		return catalog.Album{}, 0, false
	}
	album, ok := o.catalog.Album(o.album)
	if !ok {
		return catalog.Album{}, 0, false
	}
	idx, ok := album.TrackIndex(o.current.Track)
	if !ok {
		return catalog.Album{}, 0, false
	}
	return album, idx, true
}

// persistedPosition reads the durable title record of an album, falling
// back to its first track at frame 0.
func (o *Orchestrator) persistedPosition(albumIdx int) (TitlePosition, bool) {
	album, ok := o.catalog.Album(albumIdx)
	if !ok || len(album.Tracks) == 0 {
		return TitlePosition{}, false
	}
	if value, ok := o.titleRecord(albumIdx).Value(); ok {
		if pos, ok := decodeTitlePosition(value); ok {
			if _, found := album.TrackIndex(pos.Track); found {
				return pos, true
			}
		}
	}
	return NewTitlePosition(album.Tracks[0], 0), true
}

func (o *Orchestrator) titleRecord(albumIdx int) *durable.Record {
	if rec, ok := o.titleRecords[albumIdx]; ok {
		return rec
	}
	album, _ := o.catalog.Album(albumIdx)
	rec := durable.Open(album.Dir, CurrentTitleFile)
	o.titleRecords[albumIdx] = rec
	return rec
}

// persistTitle writes the current position unless browsing, announcing or
// fast-playing.
func (o *Orchestrator) persistTitle() {
	if o.current == nil || o.presenting || o.announcing || o.fastFactor != 0 || o.album < 0 {
		return
	}
	rec := o.titleRecord(o.album)
	value := o.current.encode()
	if existing, ok := rec.Value(); ok && existing == value {
		o.lastPersist = o.current.Frame
		return
	}
	if err := rec.Store(value); err != nil {
		logging.WarnWithContext(o.logger, "failed to persist title position", "persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the album directory is writable"),
			logging.String(logging.FieldImpact, "position may be lost on power failure"),
		)
		return
	}
	o.lastPersist = o.current.Frame
}

func (o *Orchestrator) persistAlbum() {
	album, ok := o.catalog.Album(o.album)
	if !ok || o.albumRecord == nil {
		return
	}
	if existing, ok := o.albumRecord.Value(); ok && existing == album.ID {
		return
	}
	if err := o.albumRecord.Store(album.ID); err != nil {
		logging.WarnWithContext(o.logger, "failed to persist current album", "persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the music root is writable"),
			logging.String(logging.FieldImpact, "album selection may be lost on power failure"),
		)
	}
}

func (o *Orchestrator) framesPerSecond() int {
	fps := int(float64(o.framesTotal) / (o.secondsTotal + 1))
	if fps < 1 {
		return 1
	}
	return fps
}

func (o *Orchestrator) send(err error) {
	if err != nil {
		logging.WarnWithContext(o.logger, "engine command failed", "engine_command_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "command was not delivered"),
		)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
