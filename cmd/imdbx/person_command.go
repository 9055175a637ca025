package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/imdbx/internal/imdb"
)

func newPersonCommand(ctx *commandContext) *cobra.Command {
	var filmography bool
	cmd := &cobra.Command{
		Use:   "person <id>",
		Short: "显示人物姓名、简介与作品表",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient(cmd)
			if err != nil {
				return err
			}

			var opts []imdb.PersonOption
			if filmography {
				opts = append(opts, imdb.WithFilmography())
			}
			info, err := client.Person(args[0], opts...).Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !isTerminal(w) {
				return writeJSON(w, info)
			}
			printPerson(w, info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&filmography, "filmography", false, "同时解析作品表")
	return cmd
}

func printPerson(w io.Writer, info imdb.PersonInfo) {
	fmt.Fprintln(w, renderFields([][]string{
		{"Name", info.Name},
		{"Person ID", info.ID},
		{"Biography", orDash(truncate(info.Biography, 200))},
	}))
	for _, c := range info.Filmography {
		rows := make([][]string, 0, len(c.Entries))
		for _, e := range c.Entries {
			role := ""
			if e.Role != nil {
				role = *e.Role
			}
			rows = append(rows, []string{formatInt(e.Year), e.Title, role, e.MovieID})
		}
		fmt.Fprintln(w, c.Name)
		fmt.Fprintln(w, renderTable([]string{"Year", "Title", "Role", "Movie ID"}, rows, []columnAlignment{alignRight}))
	}
}
