package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type chartRow struct {
	Rank   int      `json:"rank"`
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Rating *float64 `json:"rating"`
}

func newTopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "显示 IMDb Top 250 榜单",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient(cmd)
			if err != nil {
				return err
			}
			movies, err := client.TopChart(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]chartRow, 0, len(movies))
			for i, m := range movies {
				info := m.Preview()
				out = append(out, chartRow{Rank: i + 1, ID: info.ID, Title: info.OriginalTitle, Rating: info.Rating})
			}

			w := cmd.OutOrStdout()
			if !isTerminal(w) {
				return writeJSON(w, out)
			}
			rows := make([][]string, 0, len(out))
			for _, r := range out {
				rows = append(rows, []string{strconv.Itoa(r.Rank), r.Title, formatRating(r.Rating), r.ID})
			}
			fmt.Fprintln(w, renderTable([]string{"Rank", "Title", "Rating", "Movie ID"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}
