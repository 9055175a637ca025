package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger 输出到 stderr（人类可读），stdout 只留给结果。
// 人物页由多个 worker 并发加载，写入需要串行化。
func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: zerolog.SyncWriter(w), TimeFormat: time.RFC3339, NoColor: !isTerminal(w)}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}
