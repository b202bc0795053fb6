package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"jukebox/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "jukebox", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.AlbumsDir != filepath.Join(tempHome, "Music", "albums") {
		t.Fatalf("unexpected albums dir: %q", cfg.Paths.AlbumsDir)
	}
	wantState := filepath.Join(tempHome, ".local", "state", "jukebox")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.SocketPath != filepath.Join(wantState, "jukebox.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.Paths.SocketPath)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Paths.ClipsDir != "" {
		t.Fatalf("expected clips disabled by default, got %q", cfg.Paths.ClipsDir)
	}
	if cfg.Engine.Binary != "mpg123" || strings.Join(cfg.Engine.Args, " ") != "-R" {
		t.Fatalf("unexpected engine defaults: %q %v", cfg.Engine.Binary, cfg.Engine.Args)
	}
	if cfg.Controls.Layout != config.LayoutThree {
		t.Fatalf("unexpected layout %q", cfg.Controls.Layout)
	}
	if cfg.Sampling() != 10*time.Millisecond || cfg.CheckCycle() != time.Second {
		t.Fatalf("unexpected debounce timings: %s %s", cfg.Sampling(), cfg.CheckCycle())
	}
	if cfg.LongPress() != time.Second || cfg.VeryLongPress() != 10*time.Second {
		t.Fatalf("unexpected press thresholds: %s %s", cfg.LongPress(), cfg.VeryLongPress())
	}
	if cfg.RampInterval() != 3*time.Second {
		t.Fatalf("unexpected ramp interval %s", cfg.RampInterval())
	}
	if len(cfg.Frontend.RotaryCodes) != config.RotaryPositions {
		t.Fatalf("expected %d rotary codes, got %v", config.RotaryPositions, cfg.Frontend.RotaryCodes)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "jukebox.toml")
	content := `
[paths]
albums_dir = "~/albums"
clips_dir = "~/clips"
state_dir = "~/state"

[engine]
binary = "/opt/mpg123/bin/mpg123"
args = ["-R", "--no-gapless"]

[playback]
extensions = ["MP3", ".ogg", " "]
wrap_album = true

[controls]
layout = " One "

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.AlbumsDir != filepath.Join(tempHome, "albums") {
		t.Fatalf("unexpected albums dir %q", cfg.Paths.AlbumsDir)
	}
	if cfg.Paths.ClipsDir != filepath.Join(tempHome, "clips") {
		t.Fatalf("unexpected clips dir %q", cfg.Paths.ClipsDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "state", "jukebox", "logs") {
		t.Fatalf("log dir should keep its own default, got %q", cfg.Paths.LogDir)
	}
	if cfg.Paths.SocketPath != filepath.Join(tempHome, "state", "jukebox.sock") {
		t.Fatalf("socket should follow state dir, got %q", cfg.Paths.SocketPath)
	}
	if got := strings.Join(cfg.Playback.Extensions, ","); got != ".mp3,.ogg" {
		t.Fatalf("unexpected extensions %q", got)
	}
	if !cfg.Playback.WrapAlbum {
		t.Fatal("expected wrap_album to be set")
	}
	if cfg.Controls.Layout != config.LayoutOne {
		t.Fatalf("unexpected layout %q", cfg.Controls.Layout)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.Engine.Binary != "/opt/mpg123/bin/mpg123" || len(cfg.Engine.Args) != 2 {
		t.Fatalf("unexpected engine config %+v", cfg.Engine)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configPath, []byte("[paths\nalbums_dir = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.AlbumsDir, "albums") {
		t.Fatalf("expected albums dir in sample, got %q", cfg.Paths.AlbumsDir)
	}
	if cfg.Engine.Binary != "mpg123" {
		t.Fatalf("unexpected sample engine binary %q", cfg.Engine.Binary)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "run", "jukebox.sock")
	cfg.History.Path = filepath.Join(base, "db", "history.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"state", "logs", "run", "db"} {
		if info, err := os.Stat(filepath.Join(base, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if cfg.LockPath() != filepath.Join(base, "state", "jukebox.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty albums dir", func(c *config.Config) { c.Paths.AlbumsDir = "" }, "paths.albums_dir"},
		{"clips equal albums", func(c *config.Config) { c.Paths.ClipsDir = c.Paths.AlbumsDir }, "paths.clips_dir"},
		{"unknown layout", func(c *config.Config) { c.Controls.Layout = "four" }, "controls.layout"},
		{"three layout without heartbeat", func(c *config.Config) { c.Controls.CheckCycleMS = 0 }, "controls.check_cycle_ms"},
		{"heartbeat slower than long press", func(c *config.Config) { c.Controls.CheckCycleMS = 1500 }, "controls.check_cycle_ms"},
		{"very long press too short", func(c *config.Config) { c.Controls.VeryLongPressMS = 500 }, "controls.very_long_press_ms"},
		{"duplicate button codes", func(c *config.Config) {
			c.Frontend.Evdev = true
			c.Frontend.Button2Code = c.Frontend.Button1Code
		}, "frontend.button2_code"},
		{"duplicate rotary code", func(c *config.Config) {
			c.Frontend.Evdev = true
			c.Frontend.RotaryCodes = []int{59, 59}
		}, "frontend.rotary_codes"},
		{"too many rotary codes", func(c *config.Config) {
			c.Frontend.Evdev = true
			c.Frontend.RotaryCodes = make([]int, 13)
		}, "frontend.rotary_codes"},
		{"negative history retention", func(c *config.Config) { c.History.RetentionDays = -1 }, "history.retention_days"},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}

	cfg := config.Default()
	cfg.Controls.Layout = config.LayoutOne
	cfg.Controls.CheckCycleMS = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("one button layout without heartbeat should be valid: %v", err)
	}
}
