package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"jukebox/internal/eventloop"
	"jukebox/internal/id3"
	"jukebox/internal/logging"
	"jukebox/internal/observer"
)

// DefaultTagQuiescence is how long the driver waits after the first "@I"
// fragment before it considers the tag block complete.
const DefaultTagQuiescence = 200 * time.Millisecond

// Option configures a Driver.
type Option func(*Driver)

// WithSpawner injects a custom process spawner (primarily for tests).
func WithSpawner(s Spawner) Option {
	return func(d *Driver) {
		if s != nil {
			d.spawner = s
		}
	}
}

// WithTagQuiescence overrides DefaultTagQuiescence.
func WithTagQuiescence(wait time.Duration) Option {
	return func(d *Driver) {
		if wait > 0 {
			d.tagWait = wait
		}
	}
}

// WithArgs replaces the engine arguments. The default is the remote-control
// flag "-R".
func WithArgs(args ...string) Option {
	return func(d *Driver) {
		d.args = append([]string(nil), args...)
	}
}

// Driver speaks the mpg123 remote-control line protocol with a child process.
// Commands are written from the loop goroutine; output lines are read on a
// helper goroutine and dispatched on the loop.
type Driver struct {
	loop    *eventloop.Loop
	logger  *slog.Logger
	spawner Spawner
	binary  string
	args    []string
	tagWait time.Duration

	proc     Process
	stdin    io.Writer
	tags     id3.Accumulator
	tagTimer *eventloop.Timer
	events   observer.Registry[Event]

	closeOnce sync.Once
}

// Start launches the engine and begins reading its output. A launch failure
// is returned as *SpawnError.
func Start(ctx context.Context, loop *eventloop.Loop, binary string, logger *slog.Logger, opts ...Option) (*Driver, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, &SpawnError{Err: errors.New("engine binary not configured")}
	}
	d := &Driver{
		loop:    loop,
		logger:  logging.NewComponentLogger(logger, "engine"),
		spawner: ExecSpawner(),
		binary:  binary,
		args:    []string{"-R"},
		tagWait: DefaultTagQuiescence,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.tagTimer = loop.NewTimer(d.flushTags)

	proc, err := d.spawner.Spawn(ctx, d.binary, d.args)
	if err != nil {
		return nil, &SpawnError{Binary: d.binary, Err: err}
	}
	d.proc = proc
	d.stdin = proc.Stdin()

	d.logger.Info("audio engine started",
		logging.String(logging.FieldEventType, "engine_started"),
		logging.String("binary", d.binary),
		logging.Int("pid", proc.Pid()),
	)

	var stderrDone sync.WaitGroup
	stderrDone.Add(1)
	go func() {
		defer stderrDone.Done()
		d.drainStderr(proc.Stderr())
	}()
	go d.readOutput(proc.Stdout(), &stderrDone)
	return d, nil
}

// Subscribe registers a listener. Events are delivered on the loop goroutine.
func (d *Driver) Subscribe(fn func(Event)) observer.Subscription {
	return d.events.Subscribe(fn)
}

// Load asks the engine to open and start playing path.
func (d *Driver) Load(path string) error {
	return d.send("LOAD " + path)
}

// Pause toggles between paused and playing.
func (d *Driver) Pause() error {
	return d.send("PAUSE")
}

// JumpTo seeks to an absolute frame. Negative frames clamp to the start.
func (d *Driver) JumpTo(frame int) error {
	if frame < 0 {
		frame = 0
	}
	return d.send("JUMP " + strconv.Itoa(frame))
}

// JumpForward seeks frames ahead of the current position.
func (d *Driver) JumpForward(frames int) error {
	return d.send("JUMP +" + strconv.Itoa(frames))
}

// JumpBackward seeks frames behind the current position.
func (d *Driver) JumpBackward(frames int) error {
	return d.send("JUMP -" + strconv.Itoa(frames))
}

// Close stops the engine. The read loop then reports TerminatedEvent.
func (d *Driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.proc == nil {
			return
		}
		if closer := d.proc.Stdin(); closer != nil {
			_ = closer.Close()
		}
		err = d.proc.Kill()
	})
	return err
}

func (d *Driver) send(command string) error {
	if d.stdin == nil {
		return errors.New("audio engine not running")
	}
	d.logger.Debug("engine command", logging.String("command", command))
	if err := writeAll(d.stdin, []byte(command+"\n")); err != nil {
		return fmt.Errorf("write %q: %w", command, err)
	}
	return nil
}

func writeAll(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		buf = buf[n:]
	}
	return nil
}

func (d *Driver) readOutput(stdout io.Reader, stderrDone *sync.WaitGroup) {
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			line = strings.TrimRight(line, "\r\n")
			d.loop.Post(func() { d.dispatch(line) })
			continue
		}
		if errors.Is(err, io.EOF) {
			stderrDone.Wait()
			code, waitErr := d.proc.Wait()
			d.loop.Post(func() {
				d.logger.Info("audio engine exited",
					logging.String(logging.FieldEventType, "engine_exited"),
					logging.Int("exit_code", code),
				)
				d.events.Emit(TerminatedEvent{ExitCode: code, Err: waitErr})
			})
			return
		}
		d.loop.Post(func() {
			logging.WarnWithContext(d.logger, "audio engine output unreadable", "engine_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the engine process is still alive"),
				logging.String(logging.FieldImpact, "playback status updates stop"),
			)
			d.events.Emit(CommunicationProblemEvent{Err: err})
		})
		return
	}
}

func (d *Driver) drainStderr(stderr io.Reader) {
	if stderr == nil {
		return
	}
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		d.logger.Debug("engine stderr", logging.String("line", scanner.Text()))
	}
}

// dispatch decodes one complete output line. Loop goroutine only.
func (d *Driver) dispatch(line string) {
	if len(line) < 3 || line[0] != '@' {
		return
	}
	payload := strings.TrimPrefix(line[2:], " ")
	switch line[1] {
	case 'F':
		if ev, ok := parseStatus(payload); ok {
			d.events.Emit(ev)
		}
	case 'P':
		d.dispatchPlayState(payload)
	case 'I':
		if !d.tags.Started() {
			d.tagTimer.Reset(d.tagWait)
		}
		d.tags.Add(payload)
	case 'R':
		fields := strings.Fields(payload)
		ev := VersionEvent{}
		if len(fields) > 0 {
			ev.Name = fields[0]
		}
		if len(fields) > 1 {
			ev.Version = fields[1]
		}
		d.logger.Info("audio engine ready",
			logging.String("engine", ev.Name),
			logging.String("version", ev.Version),
		)
		d.events.Emit(ev)
	case 'E':
		message := strings.TrimSpace(payload)
		logging.WarnWithContext(d.logger, "audio engine reported an error", "engine_error",
			logging.String("error_message", message),
			logging.String(logging.FieldErrorHint, "verify the track file is readable"),
			logging.String(logging.FieldImpact, "current track may not play"),
		)
		d.events.Emit(ErrorEvent{Message: message})
	case 'S':
		// Stream information is not used.
	}
}

func (d *Driver) dispatchPlayState(payload string) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	switch code {
	case 0:
		eof := len(fields) > 1 && fields[1] == "EOF"
		d.events.Emit(StoppedEvent{EndOfSong: eof})
	case 1:
		d.events.Emit(PausedEvent{})
	case 2:
		d.events.Emit(UnpausedEvent{})
	}
}

func (d *Driver) flushTags() {
	title := d.tags.Title()
	d.tags.Reset()
	d.logger.Debug("title loaded", logging.String("title", title.String()))
	d.events.Emit(TitleLoadedEvent{Title: title})
}

func parseStatus(payload string) (StatusEvent, bool) {
	fields := strings.Fields(payload)
	if len(fields) < 4 {
		return StatusEvent{}, false
	}
	played, err1 := strconv.Atoi(fields[0])
	left, err2 := strconv.Atoi(fields[1])
	secPlayed, err3 := strconv.ParseFloat(fields[2], 64)
	secLeft, err4 := strconv.ParseFloat(fields[3], 64)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return StatusEvent{}, false
	}
	return StatusEvent{
		FramesPlayed:  played,
		FramesLeft:    left,
		SecondsPlayed: secPlayed,
		SecondsLeft:   secLeft,
	}, true
}
