package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	AlbumsDir  string `toml:"albums_dir"`
	ClipsDir   string `toml:"clips_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Engine contains configuration for the external audio engine process.
type Engine struct {
	Binary          string   `toml:"binary"`
	Args            []string `toml:"args"`
	TagQuiescenceMS int      `toml:"tag_quiescence_ms"`
}

// Playback contains configuration for the playback orchestrator.
type Playback struct {
	Extensions     []string `toml:"extensions"`
	WrapAlbum      bool     `toml:"wrap_album"`
	PersistFrames  int      `toml:"persist_frames"`
	RampIntervalMS int      `toml:"ramp_interval_ms"`
}

// Controls selects the input layout and its timings.
type Controls struct {
	// Layout is "three" (two buttons and a rotary switch) or "one".
	Layout          string `toml:"layout"`
	SamplingMS      int    `toml:"sampling_ms"`
	CheckCycleMS    int    `toml:"check_cycle_ms"`
	LongPressMS     int    `toml:"long_press_ms"`
	VeryLongPressMS int    `toml:"very_long_press_ms"`
}

// Frontend configures where physical input comes from.
type Frontend struct {
	Keyboard bool `toml:"keyboard"`
	Evdev    bool `toml:"evdev"`
	// DeviceName matches the evdev device name, e.g. "gpio-keys".
	DeviceName  string `toml:"device_name"`
	Button1Code int    `toml:"button1_code"`
	Button2Code int    `toml:"button2_code"`
	// RotaryCodes maps key codes to switch positions 1..12 in order.
	RotaryCodes []int `toml:"rotary_codes"`
	Hotplug     bool  `toml:"hotplug"`
}

// History configures the play history database.
type History struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the jukebox.
//
// Configuration sections by subsystem:
//   - Paths: album library, spoken-number clips, state and logs
//   - Engine: audio engine binary and protocol timing
//   - Playback: file extensions, album wrap and position persistence
//   - Controls: input layout and press timings
//   - Frontend: keyboard emulation and evdev buttons
//   - History: SQLite play history
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Engine   Engine   `toml:"engine"`
	Playback Playback `toml:"playback"`
	Controls Controls `toml:"controls"`
	Frontend Frontend `toml:"frontend"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jukebox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The albums directory is never created; an absent library plays nothing.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir, filepath.Dir(c.Paths.SocketPath)}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "jukebox.lock")
}

// TagQuiescence returns how long the engine driver waits for further tag
// fragments before publishing a title.
func (c *Config) TagQuiescence() time.Duration {
	return time.Duration(c.Engine.TagQuiescenceMS) * time.Millisecond
}

// RampInterval returns the fast play doubling interval.
func (c *Config) RampInterval() time.Duration {
	return time.Duration(c.Playback.RampIntervalMS) * time.Millisecond
}

// Sampling returns the debounce sampling delay.
func (c *Config) Sampling() time.Duration {
	return time.Duration(c.Controls.SamplingMS) * time.Millisecond
}

// CheckCycle returns the still-pressed heartbeat period.
func (c *Config) CheckCycle() time.Duration {
	return time.Duration(c.Controls.CheckCycleMS) * time.Millisecond
}

// LongPress returns the long press threshold.
func (c *Config) LongPress() time.Duration {
	return time.Duration(c.Controls.LongPressMS) * time.Millisecond
}

// VeryLongPress returns the threshold that enters album selection.
func (c *Config) VeryLongPress() time.Duration {
	return time.Duration(c.Controls.VeryLongPressMS) * time.Millisecond
}

// HistoryRetention returns how long play history is kept. Zero keeps
// everything.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "jukebox")
	}
	return "~/.local/state/jukebox"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
