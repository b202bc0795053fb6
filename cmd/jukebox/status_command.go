package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jukebox/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and playback status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				writeStatus(stdout, resp, shouldColorize(stdout), time.Now())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status as JSON")
	return cmd
}

func writeStatus(w io.Writer, resp *ipc.StatusResponse, colorize bool, now time.Time) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(w, line)
	}
	running := fmt.Sprintf("Running (pid %d)", resp.PID)
	if !resp.StartedAt.IsZero() {
		running = fmt.Sprintf("Running (pid %d, up %s)", resp.PID, now.Sub(resp.StartedAt).Truncate(time.Second))
	}
	fmt.Fprintln(w, renderStatusLine("Jukebox", statusOK, running, colorize))
	fmt.Fprintln(w, renderStatusLine("Layout", statusInfo, resp.Layout, colorize))
	fmt.Fprintln(w, renderStatusLine("Albums", statusInfo, resp.AlbumsDir, colorize))
	if resp.HistoryPath != "" {
		fmt.Fprintln(w, renderStatusLine("History", statusInfo, resp.HistoryPath, colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("History", statusWarn, "disabled", colorize))
	}
	if resp.LogPath != "" {
		fmt.Fprintln(w, renderStatusLine("Log", statusInfo, resp.LogPath, colorize))
	}
	fmt.Fprintln(w)

	for _, line := range renderSectionHeader("Playback", colorize) {
		fmt.Fprintln(w, line)
	}
	state := strings.ReplaceAll(resp.State, "_", " ")
	if resp.FastFactor > 1 {
		state = fmt.Sprintf("%s (x%d)", state, resp.FastFactor)
	}
	fmt.Fprintln(w, renderStatusLine("State", playbackStateKind(resp.State), state, colorize))
	if resp.AlbumCount == 0 {
		fmt.Fprintln(w, renderStatusLine("Album", statusWarn, "no albums found", colorize))
		return
	}
	album := fmt.Sprintf("%s %s", formatOrdinal(resp.AlbumNumber, resp.AlbumCount), resp.AlbumName)
	fmt.Fprintln(w, renderStatusLine("Album", statusInfo, strings.TrimSpace(album), colorize))
	if resp.Track == "" {
		return
	}
	track := fmt.Sprintf("%s %s", formatOrdinal(resp.TrackNumber, resp.TrackCount), resp.Track)
	fmt.Fprintln(w, renderStatusLine("Track", statusInfo, track, colorize))
	if resp.Title != "" {
		fmt.Fprintln(w, renderStatusLine("Title", statusInfo, resp.Title, colorize))
	}
	position := formatClock(resp.Seconds)
	if resp.SecondsTotal > 0 {
		position += " / " + formatClock(resp.SecondsTotal)
	}
	fmt.Fprintln(w, renderStatusLine("Position", statusInfo, position, colorize))
	fmt.Fprintln(w, renderStatusLine("Wrap albums", statusInfo, yesNo(resp.WrapAlbum), colorize))
}
