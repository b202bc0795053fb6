package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"jukebox/internal/catalog"
	"jukebox/internal/config"
	"jukebox/internal/controls"
	"jukebox/internal/debounce"
	"jukebox/internal/engine"
	"jukebox/internal/eventloop"
	"jukebox/internal/frontend"
	"jukebox/internal/history"
	"jukebox/internal/ipc"
	"jukebox/internal/logging"
	"jukebox/internal/playback"
)

// ErrEngineTerminated is returned by Run when the audio engine exits on its
// own. There is no restart; the supervisor decides what happens next.
var ErrEngineTerminated = errors.New("audio engine terminated")

// ErrAlreadyRunning reports that another daemon holds the lock file.
var ErrAlreadyRunning = errors.New("another jukebox daemon instance is already running")

// Option configures a Daemon.
type Option func(*Daemon)

// WithSpawner replaces the engine process spawner (tests).
func WithSpawner(s engine.Spawner) Option {
	return func(d *Daemon) { d.spawner = s }
}

// WithClock replaces the wall clock driving the event loop (tests).
func WithClock(c eventloop.Clock) Option {
	return func(d *Daemon) { d.clock = c }
}

// WithKeyboardInput sets the reader used by the keyboard frontend. Without
// it the keyboard frontend reads stdin.
func WithKeyboardInput(r io.Reader) Option {
	return func(d *Daemon) { d.keyboardIn = r }
}

// Daemon wires the event loop, audio engine, orchestrator, inputs and the
// control socket into one process guarded by a lock file.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	hub        *logging.StreamHub
	sessionID  string
	lock       *flock.Flock
	spawner    engine.Spawner
	clock      eventloop.Clock
	keyboardIn io.Reader
	startedAt  time.Time

	loop     *eventloop.Loop
	driver   *engine.Driver
	catalog  *catalog.Catalog
	player   *playback.Orchestrator
	store    *history.Store
	recorder *history.Recorder
	inputs   frontend.Inputs
	closers  []func()

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopping bool
}

// New prepares a daemon. Nothing is started until Run.
func New(cfg *config.Config, logger *slog.Logger, hub *logging.StreamHub, sessionID string, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		hub:       hub,
		sessionID: sessionID,
		lock:      flock.New(cfg.LockPath()),
		spawner:   engine.ExecSpawner(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run starts every component and blocks until ctx is cancelled, Stop is
// called, or the audio engine terminates.
func (d *Daemon) Run(ctx context.Context) (err error) {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if unlockErr := d.lock.Unlock(); unlockErr != nil {
			logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
				logging.Error(unlockErr),
				logging.String("lock", d.cfg.LockPath()),
				logging.String(logging.FieldImpact, "next start may report a running instance"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	d.startedAt = time.Now()

	defer d.shutdown()
	if err := d.start(runCtx); err != nil {
		return err
	}

	d.logger.Info("jukebox daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.cfg.LockPath()),
		logging.String("socket", d.cfg.Paths.SocketPath),
		logging.Int("albums", d.catalog.Len()),
		logging.String("layout", d.cfg.Controls.Layout))

	err = d.loop.Run(runCtx)
	d.mu.Lock()
	d.stopping = true
	d.mu.Unlock()
	if err != nil {
		logging.ErrorWithContext(d.logger, "jukebox daemon stopped", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the audio engine installation and logs"))
		return err
	}
	d.logger.Info("jukebox daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

// Stop asks Run to return. Safe from any goroutine.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopping = true
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Daemon) start(ctx context.Context) error {
	d.catalog = d.scanCatalog()
	clips, err := catalog.LoadClips(d.cfg.Paths.ClipsDir, d.cfg.Playback.Extensions)
	if err != nil {
		logging.WarnWithContext(d.logger, "spoken-number clips unavailable", "clips_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "album announcements are silent"),
			logging.String(logging.FieldErrorHint, "check paths.clips_dir"))
		clips = nil
	}

	d.cleanupLogs()
	if err := d.openHistory(ctx); err != nil {
		return err
	}

	d.loop = eventloop.New(d.clock, d.logger)
	d.driver, err = engine.Start(ctx, d.loop, d.cfg.Engine.Binary, d.logger,
		engine.WithSpawner(d.spawner),
		engine.WithArgs(d.cfg.Engine.Args...),
		engine.WithTagQuiescence(d.cfg.TagQuiescence()))
	if err != nil {
		return err
	}

	opts := []playback.Option{
		playback.WithWrapAlbum(d.cfg.Playback.WrapAlbum),
		playback.WithClips(clips),
		playback.WithPersistFrames(d.cfg.Playback.PersistFrames),
		playback.WithRampInterval(d.cfg.RampInterval()),
	}
	if d.recorder != nil {
		opts = append(opts, playback.WithRecorder(historyRecorder{d.recorder}))
	}
	d.player = playback.New(d.driver, d.catalog, d.loop.Clock(), d.logger, opts...)
	d.driver.Subscribe(d.onEngineEvent)

	d.wireControls()
	if err := d.startFrontends(ctx); err != nil {
		return err
	}

	srv, err := ipc.NewServer(ctx, d.cfg.Paths.SocketPath, d, d.hub, d.logger)
	if err != nil {
		return fmt.Errorf("start control socket: %w", err)
	}
	srv.Serve()
	d.closers = append(d.closers, srv.Close)

	d.loop.Post(func() {
		if !d.player.Resume() {
			d.logger.Info("nothing to play",
				logging.String(logging.FieldEventType, "catalog_empty"),
				logging.String("albums_dir", d.cfg.Paths.AlbumsDir))
		}
	})
	return nil
}

func (d *Daemon) scanCatalog() *catalog.Catalog {
	cat, err := catalog.Scan(d.cfg.Paths.AlbumsDir, d.cfg.Playback.Extensions)
	if err != nil {
		logging.WarnWithContext(d.logger, "album catalog unavailable", "catalog_scan_failed",
			logging.Error(err),
			logging.String("albums_dir", d.cfg.Paths.AlbumsDir),
			logging.String(logging.FieldImpact, "nothing can be played"),
			logging.String(logging.FieldErrorHint, "check paths.albums_dir"))
		return catalog.New(d.cfg.Paths.AlbumsDir, nil)
	}
	d.logger.Info("album catalog scanned",
		logging.String(logging.FieldEventType, "catalog_scanned"),
		logging.String("albums_dir", cat.Root()),
		logging.Int("albums", cat.Len()),
		logging.Int("tracks", cat.TrackCount()))
	return cat
}

func (d *Daemon) cleanupLogs() {
	logging.PruneLogs(d.logger, d.cfg.Paths.LogDir, d.cfg.Logging.RetentionDays, time.Now())
}

func (d *Daemon) openHistory(ctx context.Context) error {
	if !d.cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(d.cfg)
	if err != nil {
		return fmt.Errorf("open play history: %w", err)
	}
	d.store = store
	if retention := d.cfg.HistoryRetention(); retention > 0 {
		removed, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logging.WarnWithContext(d.logger, "play history prune failed", "history_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "old plays remain in history"))
		} else if removed > 0 {
			d.logger.Info("play history pruned",
				logging.String(logging.FieldEventType, "history_pruned"),
				logging.Int64("removed_count", removed))
		}
	}

	d.recorder = history.NewRecorder(store, d.logger)
	recCtx, stopRecorder := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.recorder.Run(recCtx)
	}()
	d.closers = append(d.closers, func() {
		stopRecorder()
		<-done
	})
	return nil
}

func (d *Daemon) onEngineEvent(ev engine.Event) {
	d.player.HandleEngineEvent(ev)
	term, ok := ev.(engine.TerminatedEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	stopping := d.stopping
	d.mu.Unlock()
	if stopping {
		return
	}
	if term.Err != nil {
		d.loop.Fail(fmt.Errorf("%w (exit code %d): %w", ErrEngineTerminated, term.ExitCode, term.Err))
		return
	}
	d.loop.Fail(fmt.Errorf("%w (exit code %d)", ErrEngineTerminated, term.ExitCode))
}

// wireControls builds the debounced inputs and maps them onto the player.
func (d *Daemon) wireControls() {
	sampling := d.cfg.Sampling()
	switch d.cfg.Controls.Layout {
	case config.LayoutOne:
		button := debounce.NewButton(d.loop, sampling, d.cfg.CheckCycle())
		d.inputs = frontend.Inputs{Buttons: []*debounce.Button{button}}
		c := controls.NewOneButton(d.player, button, d.cfg.LongPress(), d.cfg.VeryLongPress(), d.logger)
		d.closers = append(d.closers, c.Close)
	default:
		button1 := debounce.NewButton(d.loop, sampling, d.cfg.CheckCycle())
		button2 := debounce.NewButton(d.loop, sampling, d.cfg.CheckCycle())
		rotary := debounce.NewRotarySwitch(d.loop, sampling)
		d.inputs = frontend.Inputs{Buttons: []*debounce.Button{button1, button2}, Rotary: rotary}
		c := controls.NewThreeControls(d.player, button1, button2, rotary, d.cfg.LongPress(), d.logger)
		d.closers = append(d.closers, c.Close)
	}
}

func (d *Daemon) startFrontends(ctx context.Context) error {
	if d.cfg.Frontend.Keyboard {
		in := d.keyboardIn
		if in == nil {
			restore, err := frontend.MakeRaw(os.Stdin)
			if err != nil {
				return err
			}
			d.closers = append(d.closers, func() { _ = restore() })
			in = os.Stdin
			_, _ = io.WriteString(os.Stdout, frontend.KeyboardHelp)
		}
		kb := frontend.NewKeyboard(in, d.inputs, d.Stop, d.logger)
		go func() {
			if err := kb.Run(ctx); err != nil {
				logging.WarnWithContext(d.logger, "keyboard input stopped", "keyboard_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "keyboard controls unavailable"))
			}
		}()
	}

	if d.cfg.Frontend.Evdev {
		src, err := frontend.NewEvdev(d.cfg.Frontend, d.inputs, d.logger)
		if err != nil {
			return err
		}
		go func() { _ = src.Run(ctx) }()
		if d.cfg.Frontend.Hotplug {
			monitor := frontend.NewHotplugMonitor(d.logger, src.Rescan)
			if err := monitor.Start(ctx); err != nil {
				return err
			}
			d.closers = append(d.closers, monitor.Stop)
		}
	}
	return nil
}

// shutdown releases components in reverse start order.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	d.stopping = true
	d.mu.Unlock()
	if d.driver != nil {
		if err := d.driver.Close(); err != nil {
			d.logger.Debug("engine close", logging.Error(err))
		}
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Debug("history close", logging.Error(err))
		}
	}
}

type historyRecorder struct {
	recorder *history.Recorder
}

func (h historyRecorder) RecordPlay(p playback.Play) {
	h.recorder.Enqueue(history.Entry{
		AlbumID:  p.AlbumID,
		Track:    p.Track,
		Title:    p.Title,
		PlayedAt: p.At,
	})
}
