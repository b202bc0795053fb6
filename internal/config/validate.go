package config

import (
	"errors"
	"fmt"
	"strings"
)

// RotaryPositions is the number of positions on the album switch.
const RotaryPositions = 12

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateControls(); err != nil {
		return err
	}
	if err := c.validateFrontend(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.AlbumsDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.albums_dir must be set. Edit %s (create with 'jukebox config init')", defaultPath)
	}
	if c.Paths.ClipsDir != "" && c.Paths.ClipsDir == c.Paths.AlbumsDir {
		return errors.New("paths.clips_dir must differ from paths.albums_dir")
	}
	return nil
}

func (c *Config) validateControls() error {
	switch c.Controls.Layout {
	case LayoutThree:
		if c.Controls.CheckCycleMS <= 0 {
			return errors.New("controls.check_cycle_ms must be positive for the three layout")
		}
		if c.Controls.CheckCycleMS > c.Controls.LongPressMS {
			return errors.New("controls.check_cycle_ms must not exceed controls.long_press_ms")
		}
	case LayoutOne:
		if c.Controls.CheckCycleMS < 0 {
			return errors.New("controls.check_cycle_ms must not be negative")
		}
	default:
		return fmt.Errorf("controls.layout %q is not supported (want %q or %q)", c.Controls.Layout, LayoutThree, LayoutOne)
	}
	if c.Controls.VeryLongPressMS <= c.Controls.LongPressMS {
		return errors.New("controls.very_long_press_ms must exceed controls.long_press_ms")
	}
	return nil
}

func (c *Config) validateFrontend() error {
	if !c.Frontend.Evdev {
		return nil
	}
	if c.Frontend.Button1Code <= 0 {
		return errors.New("frontend.button1_code must be positive")
	}
	if c.Controls.Layout == LayoutOne {
		return nil
	}
	if c.Frontend.Button2Code <= 0 || c.Frontend.Button2Code == c.Frontend.Button1Code {
		return errors.New("frontend.button2_code must be positive and differ from frontend.button1_code")
	}
	if len(c.Frontend.RotaryCodes) > RotaryPositions {
		return fmt.Errorf("frontend.rotary_codes lists %d codes, at most %d positions exist", len(c.Frontend.RotaryCodes), RotaryPositions)
	}
	seen := map[int]struct{}{c.Frontend.Button1Code: {}, c.Frontend.Button2Code: {}}
	for _, code := range c.Frontend.RotaryCodes {
		if _, dup := seen[code]; dup {
			return fmt.Errorf("frontend.rotary_codes: key code %d is used twice", code)
		}
		seen[code] = struct{}{}
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
