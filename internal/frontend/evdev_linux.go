//go:build linux

package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"jukebox/internal/config"
	"jukebox/internal/logging"
)

const evdevRetryInterval = 5 * time.Second

// Evdev reads key events from the input device whose name matches the
// configured device name. When the device disappears it waits for a rescan
// nudge or the retry interval and opens it again.
type Evdev struct {
	deviceName string
	keys       KeyMap
	inputs     Inputs
	logger     *slog.Logger
	rescan     chan struct{}
	retry      time.Duration

	mu     sync.Mutex
	device *evdev.InputDevice
}

// NewEvdev validates the key bindings and prepares the source.
func NewEvdev(cfg config.Frontend, inputs Inputs, logger *slog.Logger) (*Evdev, error) {
	keys, err := NewKeyMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("evdev key map: %w", err)
	}
	return &Evdev{
		deviceName: strings.TrimSpace(cfg.DeviceName),
		keys:       keys,
		inputs:     inputs,
		logger:     logging.NewComponentLogger(logger, "evdev"),
		rescan:     make(chan struct{}, 1),
		retry:      evdevRetryInterval,
	}, nil
}

// Rescan asks Run to look for the device now instead of at the next retry.
func (e *Evdev) Rescan() {
	select {
	case e.rescan <- struct{}{}:
	default:
	}
}

// Connected reports whether a device is currently open.
func (e *Evdev) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device != nil
}

// Run opens and reads the device until ctx is cancelled.
func (e *Evdev) Run(ctx context.Context) error {
	for {
		dev, err := e.find()
		switch {
		case err != nil:
			logging.WarnWithContext(e.logger, "input device scan failed", "evdev_scan_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "physical controls unavailable until the device is found"),
				logging.String(logging.FieldErrorHint, "check permissions on /dev/input"))
		case dev == nil:
			e.logger.Debug("input device not present", logging.String("device_name", e.deviceName))
		default:
			e.read(ctx, dev)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-e.rescan:
		case <-time.After(e.retry):
		}
	}
}

func (e *Evdev) find() (*evdev.InputDevice, error) {
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return nil, err
	}
	var match *evdev.InputDevice
	for _, dev := range devices {
		if match == nil && strings.EqualFold(strings.TrimSpace(dev.Name), e.deviceName) {
			match = dev
			continue
		}
		_ = dev.File.Close()
	}
	return match, nil
}

func (e *Evdev) read(ctx context.Context, dev *evdev.InputDevice) {
	e.mu.Lock()
	e.device = dev
	e.mu.Unlock()

	e.logger.Info("input device opened",
		logging.String(logging.FieldEventType, "evdev_opened"),
		logging.String("device_name", dev.Name),
		logging.String("path", dev.Fn))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = dev.File.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		_ = dev.File.Close()
		e.mu.Lock()
		e.device = nil
		e.mu.Unlock()
	}()

	for {
		events, err := dev.Read()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.WarnWithContext(e.logger, "input device lost", "evdev_lost",
				logging.Error(err),
				logging.String("path", dev.Fn),
				logging.String(logging.FieldImpact, "physical controls unavailable until the device returns"),
				logging.String(logging.FieldErrorHint, "check the device connection"))
			return
		}
		for _, ev := range events {
			if ev.Type != evdev.EV_KEY {
				continue
			}
			if !e.keys.Apply(e.inputs, ev.Code, ev.Value) {
				e.logger.Debug("unbound key", logging.Int("code", int(ev.Code)))
			}
		}
	}
}
