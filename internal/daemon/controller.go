package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jukebox/internal/ipc"
	"jukebox/internal/logging"
	"jukebox/internal/playback"
)

const defaultHistoryLimit = 20

// Status reports daemon and playback state. Implements ipc.Controller.
func (d *Daemon) Status(ctx context.Context) (ipc.StatusResponse, error) {
	var snap playback.Snapshot
	if err := d.loop.Call(ctx, func() { snap = d.player.Snapshot() }); err != nil {
		return ipc.StatusResponse{}, err
	}
	resp := ipc.StatusResponse{
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		StartedAt:    d.startedAt,
		State:        string(snap.State),
		AlbumID:      snap.AlbumID,
		AlbumName:    snap.AlbumName,
		AlbumNumber:  snap.AlbumNumber,
		AlbumCount:   snap.AlbumCount,
		Track:        snap.Track,
		TrackNumber:  snap.TrackNumber,
		TrackCount:   snap.TrackCount,
		Title:        snap.Title,
		Frame:        snap.Frame,
		FramesTotal:  snap.FramesTotal,
		Seconds:      snap.Seconds,
		SecondsTotal: snap.SecondsTotal,
		FastFactor:   snap.FastFactor,
		WrapAlbum:    snap.WrapAlbum,
		Layout:       d.cfg.Controls.Layout,
		AlbumsDir:    d.catalog.Root(),
	}
	if d.store != nil {
		resp.HistoryPath = d.store.Path()
	}
	if d.cfg.Paths.LogDir != "" {
		resp.LogPath = filepath.Join(d.cfg.Paths.LogDir, logging.LogFileName(time.Now()))
	}
	return resp, nil
}

// Command runs one orchestrator command on the loop.
func (d *Daemon) Command(ctx context.Context, req ipc.CommandRequest) (ipc.CommandResponse, error) {
	var (
		resp   ipc.CommandResponse
		cmdErr error
	)
	err := d.loop.Call(ctx, func() {
		resp.Accepted, cmdErr = d.dispatch(req)
		resp.State = string(d.player.State())
	})
	if err != nil {
		return ipc.CommandResponse{}, err
	}
	if cmdErr != nil {
		return ipc.CommandResponse{}, cmdErr
	}
	if !resp.Accepted {
		resp.Message = fmt.Sprintf("%s had no effect in state %s", req.Name, resp.State)
	}
	return resp, nil
}

// dispatch maps a command onto the player. Loop goroutine only.
func (d *Daemon) dispatch(req ipc.CommandRequest) (bool, error) {
	p := d.player
	_, hasTitle := p.Current()
	switch req.Name {
	case ipc.CommandPause:
		p.Pause()
		return hasTitle, nil
	case ipc.CommandResume:
		return p.Resume(), nil
	case ipc.CommandNext:
		return p.Next(d.cfg.Playback.WrapAlbum), nil
	case ipc.CommandBack:
		return p.Back(), nil
	case ipc.CommandFastForward:
		p.FastForward()
		return p.FastPlayFactor() != 0, nil
	case ipc.CommandFastBackwards:
		p.FastBackwards()
		return p.FastPlayFactor() != 0, nil
	case ipc.CommandStopFast:
		wasFast := p.FastPlayFactor() != 0
		p.StopFastPlay()
		return wasFast, nil
	case ipc.CommandAlbum:
		return p.JumpToAlbum(req.Arg), nil
	case ipc.CommandPresent:
		return p.PresentNextAlbum(), nil
	case ipc.CommandResumeAlbum:
		return p.ResumeAlbum(), nil
	case ipc.CommandSay:
		if req.Arg < 0 {
			return false, fmt.Errorf("say needs a non-negative number, got %d", req.Arg)
		}
		p.Say(req.Arg)
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", req.Name)
	}
}

// Catalog lists the albums. The catalog is immutable after startup so no
// loop hop is needed.
func (d *Daemon) Catalog(context.Context) (ipc.CatalogResponse, error) {
	albums := d.catalog.Albums()
	resp := ipc.CatalogResponse{Root: d.catalog.Root(), Albums: make([]ipc.Album, 0, len(albums))}
	for i, album := range albums {
		resp.Albums = append(resp.Albums, ipc.Album{
			Number: i + 1,
			ID:     album.ID,
			Name:   album.DisplayName(),
			Tracks: len(album.Tracks),
		})
	}
	return resp, nil
}

// History queries the play history store directly; it is safe for
// concurrent use and never touches playback state.
func (d *Daemon) History(ctx context.Context, req ipc.HistoryRequest) (ipc.HistoryResponse, error) {
	if d.store == nil {
		return ipc.HistoryResponse{}, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	total, err := d.store.Count(ctx)
	if err != nil {
		return ipc.HistoryResponse{}, err
	}
	resp := ipc.HistoryResponse{Enabled: true, Total: total}
	if req.Top {
		stats, err := d.store.TopTracks(ctx, limit)
		if err != nil {
			return ipc.HistoryResponse{}, err
		}
		for _, s := range stats {
			resp.Plays = append(resp.Plays, ipc.Play{AlbumID: s.AlbumID, Track: s.Track, Title: s.Title, Plays: s.Plays, PlayedAt: s.LastPlayed})
		}
		return resp, nil
	}
	entries, err := d.store.Recent(ctx, limit)
	if err != nil {
		return ipc.HistoryResponse{}, err
	}
	for _, e := range entries {
		resp.Plays = append(resp.Plays, ipc.Play{AlbumID: e.AlbumID, Track: e.Track, Title: e.Title, PlayedAt: e.PlayedAt})
	}
	return resp, nil
}
