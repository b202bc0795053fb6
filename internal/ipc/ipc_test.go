package ipc_test

import (
	"context"
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
	stopped  bool
}

func (f *fakeController) Status(context.Context) (ipc.StatusResponse, error) {
	return ipc.StatusResponse{PID: 42, State: "playing", AlbumID: "A", Track: "a1.mp3", AlbumCount: 2}, nil
}

func (f *fakeController) Command(_ context.Context, req ipc.CommandRequest) (ipc.CommandResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, req)
	return ipc.CommandResponse{Accepted: req.Name != ipc.CommandNext, State: "paused"}, nil
}

func (f *fakeController) Catalog(context.Context) (ipc.CatalogResponse, error) {
	return ipc.CatalogResponse{Root: "/music", Albums: []ipc.Album{{Number: 1, ID: "A", Name: "A", Tracks: 2}}}, nil
}

func (f *fakeController) History(_ context.Context, req ipc.HistoryRequest) (ipc.HistoryResponse, error) {
	return ipc.HistoryResponse{Enabled: true, Total: 1, Plays: []ipc.Play{{AlbumID: "A", Track: "a1.mp3", Plays: req.Limit}}}, nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func listen(t *testing.T, ctrl ipc.Controller, hub *logging.StreamHub) (*ipc.Server, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "jbx")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "jukebox.sock")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, socket, ctrl, hub, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	return srv, socket
}

func startServer(t *testing.T, ctrl ipc.Controller, hub *logging.StreamHub) (*ipc.Client, string) {
	t.Helper()
	_, socket := listen(t, ctrl, hub)
	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, socket
}

func TestIPCServerClient(t *testing.T) {
	ctrl := &fakeController{}
	client, _ := startServer(t, ctrl, nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.PID != 42 || status.State != "playing" || status.Track != "a1.mp3" {
		t.Fatalf("unexpected status %+v", status)
	}

	resp, err := client.Command(ipc.CommandAlbum, 3)
	if err != nil {
		t.Fatalf("Command RPC failed: %v", err)
	}
	if !resp.Accepted || resp.State != "paused" {
		t.Fatalf("unexpected command response %+v", resp)
	}
	resp, err = client.Command(ipc.CommandNext, 0)
	if err != nil {
		t.Fatalf("Command RPC failed: %v", err)
	}
	if resp.Accepted {
		t.Fatal("expected next to be refused")
	}
	if _, err := client.Command("shuffle", 0); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	ctrl.mu.Lock()
	got := append([]ipc.CommandRequest(nil), ctrl.commands...)
	ctrl.mu.Unlock()
	if len(got) != 2 || got[0].Name != ipc.CommandAlbum || got[0].Arg != 3 {
		t.Fatalf("controller saw %+v", got)
	}

	cat, err := client.Catalog()
	if err != nil {
		t.Fatalf("Catalog RPC failed: %v", err)
	}
	if cat.Root != "/music" || len(cat.Albums) != 1 {
		t.Fatalf("unexpected catalog %+v", cat)
	}

	hist, err := client.History(ipc.HistoryRequest{Limit: 7, Top: true})
	if err != nil {
		t.Fatalf("History RPC failed: %v", err)
	}
	if !hist.Enabled || len(hist.Plays) != 1 || hist.Plays[0].Plays != 7 {
		t.Fatalf("unexpected history %+v", hist)
	}

	stop, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stop.Stopped {
		t.Fatal("expected stop acknowledgement")
	}
	ctrl.mu.Lock()
	stopped := ctrl.stopped
	ctrl.mu.Unlock()
	if !stopped {
		t.Fatal("controller not stopped")
	}
}

func TestLogTailFollowsHub(t *testing.T) {
	hub := logging.NewStreamHub(16)
	client, _ := startServer(t, &fakeController{}, hub)

	hub.Publish(logging.LogEvent{Message: "first"})
	hub.Publish(logging.LogEvent{Message: "second"})

	resp, err := client.LogTail(ipc.LogTailRequest{Limit: 10})
	if err != nil {
		t.Fatalf("LogTail RPC failed: %v", err)
	}
	if len(resp.Events) != 2 || resp.Events[0].Message != "first" || resp.Next != 2 {
		t.Fatalf("unexpected tail %+v", resp)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		hub.Publish(logging.LogEvent{Message: "third"})
	}()
	resp, err = client.LogTail(ipc.LogTailRequest{Since: resp.Next, Follow: true, WaitMillis: 2000})
	if err != nil {
		t.Fatalf("LogTail follow failed: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Message != "third" {
		t.Fatalf("unexpected follow result %+v", resp)
	}

	resp, err = client.LogTail(ipc.LogTailRequest{Since: resp.Next, Follow: true, WaitMillis: 20})
	if err != nil {
		t.Fatalf("LogTail timeout should not fail: %v", err)
	}
	if len(resp.Events) != 0 || resp.Next != 3 {
		t.Fatalf("expected empty follow result, got %+v", resp)
	}
}

func TestCloseHangsUpConnectedClients(t *testing.T) {
	hub := logging.NewStreamHub(16)
	srv, socket := listen(t, &fakeController{}, hub)

	idle, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer idle.Close()
	if _, err := idle.Status(); err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}

	follower, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer follower.Close()
	followErr := make(chan error, 1)
	go func() {
		_, err := follower.LogTail(ipc.LogTailRequest{Since: 1, Follow: true, WaitMillis: 30000})
		followErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		srv.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close blocked on connected clients")
	}

	if _, err := idle.Status(); err == nil {
		t.Fatal("expected idle client to be disconnected")
	}
	select {
	case <-followErr:
	case <-time.After(3 * time.Second):
		t.Fatal("follower was not released by Close")
	}
	if _, err := os.Stat(socket); !os.IsNotExist(err) {
		t.Fatalf("socket file still present: %v", err)
	}
}

func TestDialMissingSocket(t *testing.T) {
	if _, err := ipc.Dial(filepath.Join(t.TempDir(), "missing.sock")); err == nil {
		t.Fatal("expected dial error")
	}
}
