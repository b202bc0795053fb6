package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"jukebox/internal/logging"
)

// ErrStopped is returned by Call when the loop has already exited.
var ErrStopped = errors.New("event loop stopped")

// Loop executes posted work on a single goroutine. All state owned by loop
// clients (debouncers, the engine driver, the orchestrator) is only touched
// from inside posted functions.
type Loop struct {
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	failErr error
	failed  chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New constructs a loop driven by the given clock. A nil clock uses wall time.
func New(clock Clock, logger *slog.Logger) *Loop {
	if clock == nil {
		clock = SystemClock()
	}
	return &Loop{
		clock:   clock,
		logger:  logging.NewComponentLogger(logger, "event-loop"),
		wake:    make(chan struct{}, 1),
		failed:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Clock returns the time source shared by timers on this loop.
func (l *Loop) Clock() Clock {
	return l.clock
}

// Now is shorthand for l.Clock().Now().
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn for execution on the loop goroutine. It never blocks and is
// safe to call from any goroutine, including the loop itself.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail makes Run return err after the current task. Only the first call wins.
func (l *Loop) Fail(err error) {
	l.once.Do(func() {
		l.mu.Lock()
		l.failErr = err
		l.mu.Unlock()
		close(l.failed)
	})
}

// Run processes posted work until ctx is cancelled or Fail is called.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	l.logger.Debug("event loop running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.failed:
			return l.failure()
		case <-l.wake:
		}
		for {
			batch := l.take()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				fn()
				select {
				case <-l.failed:
					return l.failure()
				default:
				}
			}
		}
	}
}

// Drain runs queued work on the calling goroutine until the queue is empty.
// Intended for tests that drive the loop without a Run goroutine.
func (l *Loop) Drain() int {
	ran := 0
	for {
		batch := l.take()
		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

func (l *Loop) failure() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failErr
}
