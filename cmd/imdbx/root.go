package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "imdbx",
		Short:         "按需抓取 IMDb 影片与人物信息",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configPath, "config", "c", "", "配置文件路径（默认查找 ./imdbx.yaml|yml|json）")
	flags.StringVar(&ctx.baseURL, "base-url", "", "站点根地址（默认 https://www.imdb.com）")
	flags.StringVar(&ctx.logLevel, "log-level", "", "日志级别：trace|debug|info|warn|error（默认 warn）")
	flags.StringVar(&ctx.recordDir, "record-dir", "", "把抓取到的页面写入该目录（空串关闭）")

	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newMovieCommand(ctx))
	rootCmd.AddCommand(newPersonCommand(ctx))
	rootCmd.AddCommand(newTopCommand(ctx))

	return rootCmd
}
