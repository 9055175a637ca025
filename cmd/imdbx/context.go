package main

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/imdbx/internal/config"
	"github.com/John-Robertt/imdbx/internal/imdb"
	"github.com/John-Robertt/imdbx/internal/infra/httpx"
	"github.com/John-Robertt/imdbx/internal/infra/record"
)

// commandContext 持有全局 flag，并在第一个子命令运行时构造配置、日志与 imdb.Client。
type commandContext struct {
	configPath string
	baseURL    string
	logLevel   string
	recordDir  string

	once   sync.Once
	eff    config.EffectiveConfig
	log    zerolog.Logger
	client *imdb.Client
	err    error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureClient(cmd *cobra.Command) (*imdb.Client, error) {
	c.once.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			c.err = err
			return
		}

		flags := cmd.Flags()
		eff, err := config.LoadEffective(cwd, config.CLIArgs{
			ConfigPath:   c.configPath,
			BaseURL:      c.baseURL,
			BaseURLSet:   flags.Changed("base-url"),
			LogLevel:     c.logLevel,
			LogLevelSet:  flags.Changed("log-level"),
			RecordDir:    c.recordDir,
			RecordDirSet: flags.Changed("record-dir"),
		})
		if err != nil {
			c.err = err
			return
		}
		c.eff = eff
		c.log = newLogger(cmd.ErrOrStderr(), eff.LogLevel)
		if eff.Source != "" {
			c.log.Debug().Str("path", eff.Source).Msg("config loaded")
		}

		hc, err := httpx.NewClient(httpx.Options{
			ProxyURL:       eff.ProxyURL,
			Timeout:        eff.Timeout,
			UserAgent:      eff.UserAgent,
			AcceptLanguage: eff.AcceptLanguage,
		})
		if err != nil {
			c.err = err
			return
		}

		var f imdb.Fetcher = httpx.NewFetcher(hc, c.log)
		if eff.RecordDir != "" {
			f = record.New(eff.RecordDir, f, c.log)
		}
		c.client = imdb.New(f, imdb.WithBaseURL(eff.BaseURL), imdb.WithLogger(c.log))
	})
	return c.client, c.err
}
