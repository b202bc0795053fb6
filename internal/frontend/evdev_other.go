//go:build !linux

package frontend

import (
	"context"
	"errors"
	"log/slog"

	"jukebox/internal/config"
)

// Evdev is only available on Linux.
type Evdev struct{}

// NewEvdev reports that evdev input is unsupported on this platform.
func NewEvdev(config.Frontend, Inputs, *slog.Logger) (*Evdev, error) {
	return nil, errors.New("evdev input requires linux")
}

func (*Evdev) Rescan() {}

func (*Evdev) Connected() bool { return false }

func (*Evdev) Run(context.Context) error { return nil }
