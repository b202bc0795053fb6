package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"jukebox/internal/ipc"
	"jukebox/internal/logging"
)

type fakeController struct {
	mu       sync.Mutex
	commands []ipc.CommandRequest
	history  []ipc.HistoryRequest
	stopped  bool
}

func (f *fakeController) Status(context.Context) (ipc.StatusResponse, error) {
	return ipc.StatusResponse{
		PID:          42,
		StartedAt:    time.Now().Add(-time.Minute),
		State:        "playing",
		AlbumID:      "rock/b",
		AlbumName:    "b",
		AlbumNumber:  2,
		AlbumCount:   3,
		Track:        "02 Second.mp3",
		TrackNumber:  2,
		TrackCount:   9,
		Title:        "Second",
		Seconds:      75,
		SecondsTotal: 200,
		Layout:       "three",
		AlbumsDir:    "/music",
	}, nil
}

func (f *fakeController) Command(_ context.Context, req ipc.CommandRequest) (ipc.CommandResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, req)
	if req.Name == ipc.CommandNext {
		return ipc.CommandResponse{State: "playing", Message: "already at the last track"}, nil
	}
	return ipc.CommandResponse{Accepted: true, State: "paused"}, nil
}

func (f *fakeController) Catalog(context.Context) (ipc.CatalogResponse, error) {
	return ipc.CatalogResponse{Root: "/music", Albums: []ipc.Album{
		{Number: 1, ID: "jazz/a", Name: "a", Tracks: 4},
		{Number: 2, ID: "rock/b", Name: "b", Tracks: 9},
	}}, nil
}

func (f *fakeController) History(_ context.Context, req ipc.HistoryRequest) (ipc.HistoryResponse, error) {
	f.mu.Lock()
	f.history = append(f.history, req)
	f.mu.Unlock()
	play := ipc.Play{AlbumID: "rock/b", Track: "02 Second.mp3", Title: "Second", PlayedAt: time.Now()}
	if req.Top {
		play.Plays = 7
	}
	return ipc.HistoryResponse{Enabled: true, Total: 1, Plays: []ipc.Play{play}}, nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

type cliTestEnv struct {
	ctrl       *fakeController
	hub        *logging.StreamHub
	socketPath string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, dir := range []string{"albums", "state", "home"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base)

	// Unix socket paths are length limited; keep them out of deep test dirs.
	sockDir, err := os.MkdirTemp("", "jbx")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(sockDir) })
	socketPath := filepath.Join(sockDir, "cli.sock")

	ctrl := &fakeController{}
	hub := logging.NewStreamHub(64)
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, socketPath, ctrl, hub, logging.NewNop())
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return &cliTestEnv{
		ctrl:       ctrl,
		hub:        hub,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path, base string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
albums_dir = %q
state_dir = %q

[engine]
binary = "sh"
args = ["-R"]
`, filepath.Join(base, "albums"), filepath.Join(base, "state"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}
