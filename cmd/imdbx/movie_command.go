package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/imdbx/internal/app"
	"github.com/John-Robertt/imdbx/internal/imdb"
	"github.com/John-Robertt/imdbx/internal/infra/fsx"
	"github.com/John-Robertt/imdbx/internal/nfo"
)

const directorsSection = "Directed by"

func newMovieCommand(ctx *commandContext) *cobra.Command {
	var (
		credits bool
		castN   int
		nfoPath string
	)
	cmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "显示影片详情（片名、简介、年份、类型、评分与主要演员）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient(cmd)
			if err != nil {
				return err
			}
			log := ctx.log
			if castN < 0 {
				castN = 0
			}

			var opts []imdb.MovieOption
			if credits || castN > 0 || nfoPath != "" {
				opts = append(opts, imdb.WithCredits())
			}
			m := client.Movie(args[0], opts...)
			if err := m.Load(cmd.Context()); err != nil {
				return err
			}

			// 前 N 位演员（以及 NFO 需要的导演）并发加载，取得姓名。
			var people []*imdb.Person
			if cast, ok, _ := m.Cast(cmd.Context()); ok {
				for i := 0; i < len(cast) && i < castN; i++ {
					people = append(people, cast[i].Person)
				}
			}
			if nfoPath != "" {
				if sections, ok, _ := m.Credits(cmd.Context()); ok {
					for _, s := range sections {
						if strings.HasPrefix(s.Name, directorsSection) {
							for _, c := range s.Credits {
								people = append(people, c.Person)
							}
						}
					}
				}
			}
			if failed := app.LoadPeople(cmd.Context(), people, ctx.eff.Concurrency, log); failed > 0 {
				log.Info().Int("failed", failed).Int("total", len(people)).Msg("some names missing")
			}

			info := m.Preview()

			if nfoPath != "" {
				b, err := nfo.Encode(info)
				if err != nil {
					return err
				}
				abs, err := filepath.Abs(nfoPath)
				if err != nil {
					return err
				}
				if err := fsx.WriteFileAtomicNoOverwrite(filepath.Dir(abs), filepath.Base(abs), b); err != nil {
					switch {
					case os.IsExist(err):
						return fmt.Errorf("NFO 文件已存在，不覆盖：%s", abs)
					case fsx.IsPathTypeConflict(err):
						return fmt.Errorf("NFO 路径不是普通文件：%w", err)
					case fsx.IsCrossDevice(err):
						return fmt.Errorf("NFO 目录不支持原子写入：%w", err)
					}
					return fmt.Errorf("写入 NFO 失败：%w", err)
				}
				log.Info().Str("path", abs).Msg("nfo written")
			}

			if !credits {
				info.Credits = nil
			}
			if len(info.Cast) > castN {
				info.Cast = info.Cast[:castN]
			}

			w := cmd.OutOrStdout()
			if !isTerminal(w) {
				return writeJSON(w, info)
			}
			printMovie(w, info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&credits, "credits", false, "输出完整演职员表")
	cmd.Flags().IntVar(&castN, "cast", 5, "显示前 N 位演员（会逐个加载人物页）")
	cmd.Flags().StringVar(&nfoPath, "nfo", "", "同时写出 Kodi NFO 文件（已存在则失败）")
	return cmd
}

func printMovie(w io.Writer, info imdb.MovieInfo) {
	fmt.Fprintln(w, renderFields([][]string{
		{"Title", info.OriginalTitle},
		{"Movie ID", info.ID},
		{"Year", formatInt(info.Year)},
		{"Genres", orDash(strings.Join(info.Genres, ", "))},
		{"Metacritic", formatInt(info.MetacriticScore)},
		{"Rating", formatRating(info.Rating)},
		{"Plot", orDash(truncate(info.PlotSummary, 100))},
	}))

	if len(info.Cast) > 0 {
		rows := make([][]string, 0, len(info.Cast))
		for _, c := range info.Cast {
			rows = append(rows, []string{orDash(c.Name), c.Role, c.PersonID})
		}
		fmt.Fprintln(w, renderTable([]string{"Actor", "Character", "Person ID"}, rows, nil))
	}

	for _, s := range info.Credits {
		rows := make([][]string, 0, len(s.Credits))
		for _, c := range s.Credits {
			rows = append(rows, []string{c.PersonID, orDash(c.Name), c.Role})
		}
		fmt.Fprintln(w, s.Name)
		fmt.Fprintln(w, renderTable([]string{"Person ID", "Name", "Role"}, rows, nil))
	}
}
