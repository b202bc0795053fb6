package eventloop

import "time"

// Clock abstracts the time source so timers can be driven manually in tests.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f on its own goroutine after d and returns a stop func.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
