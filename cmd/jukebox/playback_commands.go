package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jukebox/internal/ipc"
)

type playbackCommandSpec struct {
	use     string
	name    string
	short   string
	argName string
}

var playbackCommandSpecs = []playbackCommandSpec{
	{use: "pause", name: ipc.CommandPause, short: "Toggle between playing and paused"},
	{use: "resume", name: ipc.CommandResume, short: "Resume the saved album and track"},
	{use: "next", name: ipc.CommandNext, short: "Skip to the next track"},
	{use: "back", name: ipc.CommandBack, short: "Restart the track, or go to the previous one near its start"},
	{use: "fast-forward", name: ipc.CommandFastForward, short: "Start ramping fast play forward"},
	{use: "fast-backwards", name: ipc.CommandFastBackwards, short: "Start ramping fast play backwards"},
	{use: "stop-fast", name: ipc.CommandStopFast, short: "Return from fast play to normal playback"},
	{use: "album", name: ipc.CommandAlbum, short: "Jump to album N (1 based)", argName: "number"},
	{use: "present", name: ipc.CommandPresent, short: "Announce and preview the next album"},
	{use: "resume-album", name: ipc.CommandResumeAlbum, short: "Play the presented album from its saved position"},
	{use: "say", name: ipc.CommandSay, short: "Speak a number using the clip directory", argName: "number"},
}

func newPlaybackCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(playbackCommandSpecs))
	for _, spec := range playbackCommandSpecs {
		cmds = append(cmds, newPlaybackCommand(ctx, spec))
	}
	return cmds
}

func newPlaybackCommand(ctx *commandContext, spec playbackCommandSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := 0
			if spec.argName != "" {
				value, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || value < 0 {
					return fmt.Errorf("%s: %s must be a non-negative integer, got %q", spec.use, spec.argName, args[0])
				}
				arg = value
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Command(spec.name, arg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeCommandResult(spec.use, resp))
				return nil
			})
		},
	}
	if spec.argName != "" {
		cmd.Use = spec.use + " <" + spec.argName + ">"
		cmd.Args = cobra.ExactArgs(1)
	}
	return cmd
}

func describeCommandResult(use string, resp *ipc.CommandResponse) string {
	state := strings.ReplaceAll(resp.State, "_", " ")
	if resp.Accepted {
		return fmt.Sprintf("%s: ok (%s)", use, state)
	}
	message := strings.TrimSpace(resp.Message)
	if message == "" {
		message = "ignored"
	}
	return fmt.Sprintf("%s: %s (%s)", use, message, state)
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the jukebox daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			defer client.Close()
			resp, err := client.Stop()
			if err != nil {
				return err
			}
			if resp.Stopped {
				fmt.Fprintln(stdout, "Daemon stopped")
			} else {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			return nil
		},
	}
}
