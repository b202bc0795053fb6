package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"jukebox/internal/ipc"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"albums"},
		Short:   "List albums in play order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Catalog()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Albums) == 0 {
					fmt.Fprintf(stdout, "No albums found under %s\n", resp.Root)
					return nil
				}
				rows := make([][]string, 0, len(resp.Albums))
				for _, album := range resp.Albums {
					rows = append(rows, []string{
						strconv.Itoa(album.Number),
						album.Name,
						strconv.Itoa(album.Tracks),
						album.ID,
					})
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"#", "Album", "Tracks", "ID"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var top bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently played or most played tracks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(ipc.HistoryRequest{Limit: limit, Top: top})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if !resp.Enabled {
					fmt.Fprintln(stdout, "Play history is disabled")
					return nil
				}
				if len(resp.Plays) == 0 {
					fmt.Fprintln(stdout, "No plays recorded yet")
					return nil
				}
				fmt.Fprint(stdout, renderHistory(resp, top))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows")
	cmd.Flags().BoolVar(&top, "top", false, "Rank tracks by play count")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print history as JSON")
	return cmd
}

func renderHistory(resp *ipc.HistoryResponse, top bool) string {
	rows := make([][]string, 0, len(resp.Plays))
	if top {
		for _, play := range resp.Plays {
			rows = append(rows, []string{strconv.Itoa(play.Plays), play.AlbumID, play.Track, play.Title})
		}
		return renderTable(
			[]string{"Plays", "Album", "Track", "Title"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		)
	}
	for _, play := range resp.Plays {
		rows = append(rows, []string{
			play.PlayedAt.Local().Format("2006-01-02 15:04"),
			play.AlbumID,
			play.Track,
			play.Title,
		})
	}
	return renderTable([]string{"Played", "Album", "Track", "Title"}, rows, nil)
}
