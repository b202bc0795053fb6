package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jukebox/internal/config"
	"jukebox/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryReadable("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	binDir := t.TempDir()
	engine := filepath.Join(binDir, "mpg123")
	if err := os.WriteFile(engine, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Paths.AlbumsDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.ClipsDir = ""
	cfg.Engine.Binary = engine

	results := RunAll(&cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	if err := Error(results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
}

func TestRunAll_ReportsMissingEngineAndClips(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.AlbumsDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.ClipsDir = filepath.Join(t.TempDir(), "clips")
	cfg.Engine.Binary = "clearly-not-present-engine"

	results := RunAll(&cfg)
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %+v", failed)
	}
	err := Error(results)
	if err == nil || !strings.Contains(err.Error(), "Audio engine") || !strings.Contains(err.Error(), "Clips directory") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestProbeInputDevice(t *testing.T) {
	listing := `I: Bus=0019 Vendor=0001 Product=0001 Version=0100
N: Name="Power Button"
H: Handlers=kbd event0

I: Bus=0019 Vendor=0001 Product=0001 Version=0100
N: Name="gpio-keys"
P: Phys=gpio-keys/input0
H: Handlers=kbd event3
`
	path := filepath.Join(t.TempDir(), "devices")
	if err := os.WriteFile(path, []byte(listing), 0o644); err != nil {
		t.Fatal(err)
	}
	prev := inputDevicesPath
	inputDevicesPath = path
	t.Cleanup(func() { inputDevicesPath = prev })

	probe := ProbeInputDevice("gpio-keys")
	if !probe.Found || probe.Event != "/dev/input/event3" {
		t.Fatalf("unexpected probe %+v", probe)
	}
	if !probe.Result().Passed {
		t.Fatal("expected passing result")
	}

	missing := ProbeInputDevice("rotary")
	if missing.Found {
		t.Fatal("unexpected match")
	}
	if !strings.Contains(missing.Detail(), "not attached") {
		t.Fatalf("unexpected detail %q", missing.Detail())
	}
}

func TestRunAll_StubbedEngineAndClips(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithAlbums(map[string][]string{"a": {"01.mp3"}}),
		testsupport.WithClips(1, 2, 3),
		testsupport.WithStubbedBinaries(),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %+v", results)
	}
	if err := Error(results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	engine := results[3]
	if !strings.HasPrefix(engine.Detail, testsupport.BaseDir(cfg)) {
		t.Fatalf("engine should resolve to the stub under %s, got %q", testsupport.BaseDir(cfg), engine.Detail)
	}
}
