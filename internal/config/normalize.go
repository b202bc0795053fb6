package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizePlayback()
	c.normalizeControls()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.AlbumsDir, err = expandPath(c.Paths.AlbumsDir); err != nil {
		return fmt.Errorf("paths.albums_dir: %w", err)
	}
	if c.Paths.ClipsDir, err = expandPath(strings.TrimSpace(c.Paths.ClipsDir)); err != nil {
		return fmt.Errorf("paths.clips_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.StateDir, defaultSocketName)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if len(c.Engine.Args) == 0 {
		c.Engine.Args = []string{defaultRemoteControlFlag}
	}
	if c.Engine.TagQuiescenceMS <= 0 {
		c.Engine.TagQuiescenceMS = defaultTagQuiescenceMS
	}
}

func (c *Config) normalizePlayback() {
	exts := make([]string, 0, len(c.Playback.Extensions))
	for _, ext := range c.Playback.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = []string{defaultAudioExtension}
	}
	c.Playback.Extensions = exts
	if c.Playback.PersistFrames <= 0 {
		c.Playback.PersistFrames = defaultPersistFrames
	}
	if c.Playback.RampIntervalMS <= 0 {
		c.Playback.RampIntervalMS = defaultRampIntervalMS
	}
}

func (c *Config) normalizeControls() {
	c.Controls.Layout = strings.ToLower(strings.TrimSpace(c.Controls.Layout))
	if c.Controls.Layout == "" {
		c.Controls.Layout = defaultLayout
	}
	if c.Controls.SamplingMS <= 0 {
		c.Controls.SamplingMS = defaultSamplingMS
	}
	if c.Controls.LongPressMS <= 0 {
		c.Controls.LongPressMS = defaultLongPressMS
	}
	if c.Controls.VeryLongPressMS <= 0 {
		c.Controls.VeryLongPressMS = defaultVeryLongPressMS
	}
	c.Frontend.DeviceName = strings.TrimSpace(c.Frontend.DeviceName)
	if c.Frontend.DeviceName == "" {
		c.Frontend.DeviceName = defaultDeviceName
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryName)
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
