package engine_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"jukebox/internal/engine"
	"jukebox/internal/eventloop"
	"jukebox/internal/logging"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Close() error { return nil }

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeProcess struct {
	stdin    *syncBuffer
	stdoutR  *io.PipeReader
	stdoutW  *io.PipeWriter
	exitCode int
	killed   bool
}

func newFakeProcess() *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{stdin: &syncBuffer{}, stdoutR: r, stdoutW: w, exitCode: 3}
}

func (p *fakeProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *fakeProcess) Stdout() io.Reader      { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader      { return strings.NewReader("mpg123 banner\n") }
func (p *fakeProcess) Pid() int               { return 4242 }
func (p *fakeProcess) Wait() (int, error)     { return p.exitCode, nil }
func (p *fakeProcess) Kill() error {
	p.killed = true
	return p.stdoutW.Close()
}

type fakeSpawner struct {
	proc   *fakeProcess
	err    error
	binary string
	args   []string
}

func (s *fakeSpawner) Spawn(_ context.Context, binary string, args []string) (engine.Process, error) {
	s.binary = binary
	s.args = args
	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

type harness struct {
	loop   *eventloop.Loop
	driver *engine.Driver
	proc   *fakeProcess
	spawn  *fakeSpawner
	events chan engine.Event
}

func startHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := eventloop.New(nil, logging.NewNop())
	go func() { _ = loop.Run(ctx) }()

	proc := newFakeProcess()
	spawner := &fakeSpawner{proc: proc}
	driver, err := engine.Start(ctx, loop, "/usr/bin/mpg123", logging.NewNop(),
		engine.WithSpawner(spawner),
		engine.WithTagQuiescence(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	h := &harness{loop: loop, driver: driver, proc: proc, spawn: spawner, events: make(chan engine.Event, 32)}
	driver.Subscribe(func(ev engine.Event) { h.events <- ev })
	return h
}

func (h *harness) emit(t *testing.T, output string) {
	t.Helper()
	if _, err := io.WriteString(h.proc.stdoutW, output); err != nil {
		t.Fatalf("write engine output: %v", err)
	}
}

func (h *harness) next(t *testing.T) engine.Event {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for engine event")
		return nil
	}
}

func TestStartUsesRemoteControlFlag(t *testing.T) {
	h := startHarness(t)
	if h.spawn.binary != "/usr/bin/mpg123" {
		t.Fatalf("binary = %q", h.spawn.binary)
	}
	if len(h.spawn.args) != 1 || h.spawn.args[0] != "-R" {
		t.Fatalf("args = %v", h.spawn.args)
	}
}

func TestCommandsAreNewlineTerminated(t *testing.T) {
	h := startHarness(t)
	err := h.loop.Call(context.Background(), func() {
		_ = h.driver.Load("/music/a/01.mp3")
		_ = h.driver.Pause()
		_ = h.driver.JumpTo(10)
		_ = h.driver.JumpTo(-7)
		_ = h.driver.JumpForward(5)
		_ = h.driver.JumpBackward(7)
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	want := "LOAD /music/a/01.mp3\nPAUSE\nJUMP 10\nJUMP 0\nJUMP +5\nJUMP -7\n"
	if got := h.proc.stdin.String(); got != want {
		t.Fatalf("stdin = %q, want %q", got, want)
	}
}

func TestOutputLinesDecodeInOrder(t *testing.T) {
	h := startHarness(t)
	h.emit(t, "@R MPG123 1.25.10\n@F 10 90 0.26 2.35\n@P 1\n@P 2\n@P 0 EOF\n@P 0\n@E Oops bad file\n@S 1.0 3 44100\nxx\n@F garbage\n")

	if ev, ok := h.next(t).(engine.VersionEvent); !ok || ev.Version != "1.25.10" {
		t.Fatalf("expected version event, got %#v", ev)
	}
	status, ok := h.next(t).(engine.StatusEvent)
	if !ok || status.FramesPlayed != 10 || status.FramesLeft != 90 || status.Total() != 100 {
		t.Fatalf("unexpected status %#v", status)
	}
	if _, ok := h.next(t).(engine.PausedEvent); !ok {
		t.Fatal("expected paused")
	}
	if _, ok := h.next(t).(engine.UnpausedEvent); !ok {
		t.Fatal("expected unpaused")
	}
	if ev, ok := h.next(t).(engine.StoppedEvent); !ok || !ev.EndOfSong {
		t.Fatalf("expected natural stop, got %#v", ev)
	}
	if ev, ok := h.next(t).(engine.StoppedEvent); !ok || ev.EndOfSong {
		t.Fatalf("expected plain stop, got %#v", ev)
	}
	if ev, ok := h.next(t).(engine.ErrorEvent); !ok || ev.Message != "Oops bad file" {
		t.Fatalf("expected error event, got %#v", ev)
	}
	select {
	case ev := <-h.events:
		t.Fatalf("unexpected extra event %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSplitLineIsReassembled(t *testing.T) {
	h := startHarness(t)
	h.emit(t, "@F 1 2")
	h.emit(t, " 0.1 0.2\n")
	if ev, ok := h.next(t).(engine.StatusEvent); !ok || ev.FramesLeft != 2 {
		t.Fatalf("unexpected event %#v", ev)
	}
}

func TestTagFragmentsProduceOneTitle(t *testing.T) {
	h := startHarness(t)
	h.emit(t, "@I song.mp3\n@I ID3v2.title:Hello\n@I ID3v2.artist:World\n")
	ev, ok := h.next(t).(engine.TitleLoadedEvent)
	if !ok {
		t.Fatalf("expected title loaded, got %#v", ev)
	}
	if ev.Title.String() != "World - Hello" {
		t.Fatalf("title = %q", ev.Title.String())
	}

	h.emit(t, "@I other.mp3\n")
	ev, ok = h.next(t).(engine.TitleLoadedEvent)
	if !ok || ev.Title.String() != "other.mp3" {
		t.Fatalf("accumulator not reset: %#v", ev)
	}
}

func TestEndOfStreamReportsTermination(t *testing.T) {
	h := startHarness(t)
	_ = h.proc.stdoutW.Close()
	ev, ok := h.next(t).(engine.TerminatedEvent)
	if !ok || ev.ExitCode != 3 {
		t.Fatalf("expected termination with exit code 3, got %#v", ev)
	}
}

func TestReadFailureReportsCommunicationProblem(t *testing.T) {
	h := startHarness(t)
	boom := errors.New("pipe broke")
	_ = h.proc.stdoutW.CloseWithError(boom)
	ev, ok := h.next(t).(engine.CommunicationProblemEvent)
	if !ok || !errors.Is(ev.Err, boom) {
		t.Fatalf("expected communication problem, got %#v", ev)
	}
}

func TestCloseKillsEngine(t *testing.T) {
	h := startHarness(t)
	if err := h.driver.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !h.proc.killed {
		t.Fatal("engine not killed")
	}
	if _, ok := h.next(t).(engine.TerminatedEvent); !ok {
		t.Fatal("expected termination after Close")
	}
}

func TestSpawnFailureIsTyped(t *testing.T) {
	loop := eventloop.New(nil, logging.NewNop())
	spawner := &fakeSpawner{err: errors.New("no such file")}
	_, err := engine.Start(context.Background(), loop, "/nope/mpg123", logging.NewNop(), engine.WithSpawner(spawner))
	var spawnErr *engine.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected *SpawnError, got %v", err)
	}
	if spawnErr.Binary != "/nope/mpg123" {
		t.Fatalf("binary = %q", spawnErr.Binary)
	}
}
