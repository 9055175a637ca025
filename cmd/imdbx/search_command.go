package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/imdbx/internal/imdb"
)

type searchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// searchOutput 中未请求的种类输出为 null，请求了但没有结果输出为 []。
type searchOutput struct {
	Query  string      `json:"query"`
	Titles []searchHit `json:"titles"`
	Actors []searchHit `json:"actors"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		titles bool
		actors bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "搜索影片与人物",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient(cmd)
			if err != nil {
				return err
			}

			opts := imdb.DefaultSearchOptions()
			opts.Limit = ctx.eff.SearchLimit
			if cmd.Flags().Changed("limit") {
				opts.Limit = limit
			}
			// 只给了其中一个开关时，只搜那一类。
			if titles || actors {
				opts.Titles, opts.Actors = titles, actors
			}

			query := strings.Join(args, " ")
			res, err := client.Search(cmd.Context(), query, opts)
			if err != nil {
				return err
			}

			out := searchOutput{Query: query}
			if res.Has(imdb.KindTitles) {
				out.Titles = make([]searchHit, 0, len(res.Titles))
				for _, m := range res.Titles {
					info := m.Preview()
					out.Titles = append(out.Titles, searchHit{ID: info.ID, Title: info.OriginalTitle, URL: info.URL})
				}
			}
			if res.Has(imdb.KindActors) {
				out.Actors = make([]searchHit, 0, len(res.Actors))
				for _, p := range res.Actors {
					info := p.Preview()
					out.Actors = append(out.Actors, searchHit{ID: info.ID, Title: info.Name, URL: info.URL})
				}
			}

			w := cmd.OutOrStdout()
			if !isTerminal(w) {
				return writeJSON(w, out)
			}
			if out.Titles != nil {
				rows := make([][]string, 0, len(out.Titles))
				for _, h := range out.Titles {
					rows = append(rows, []string{h.Title, h.ID})
				}
				fmt.Fprintln(w, renderTable([]string{"Title", "Movie ID"}, rows, nil))
			}
			if out.Actors != nil {
				rows := make([][]string, 0, len(out.Actors))
				for _, h := range out.Actors {
					rows = append(rows, []string{h.Title, h.ID})
				}
				fmt.Fprintln(w, renderTable([]string{"Name", "Person ID"}, rows, nil))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "每类结果的数量上限（默认取配置 search_limit）")
	cmd.Flags().BoolVar(&titles, "titles", false, "只搜索影片")
	cmd.Flags().BoolVar(&actors, "actors", false, "只搜索人物")
	return cmd
}
