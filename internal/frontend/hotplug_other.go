//go:build !linux

package frontend

import (
	"context"
	"log/slog"
)

// HotplugMonitor is a no-op outside Linux.
type HotplugMonitor struct{}

func NewHotplugMonitor(*slog.Logger, func()) *HotplugMonitor { return &HotplugMonitor{} }

func (*HotplugMonitor) Start(context.Context) error { return nil }

func (*HotplugMonitor) Stop() {}

func (*HotplugMonitor) Running() bool { return false }
