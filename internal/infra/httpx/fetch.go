package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type StatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// IsNotFound 判断 err 是否为 HTTP 404（常见于 ID 不存在）。
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Fetcher 把 URL 变成原始页面字节。只认 2xx 为成功，其余一律报错。
type Fetcher struct {
	Client *http.Client
	Log    zerolog.Logger
}

func NewFetcher(c *http.Client, log zerolog.Logger) *Fetcher {
	return &Fetcher{Client: c, Log: log}
}

func (f *Fetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	if f == nil || f.Client == nil {
		return nil, errors.New("http client 不能为空")
	}
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		f.Log.Debug().Err(err).Str("url", u).Dur("took", time.Since(started)).Msg("fetch failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.Log.Debug().Str("url", u).Int("status", resp.StatusCode).Dur("took", time.Since(started)).Msg("fetch rejected")
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	f.Log.Debug().
		Str("url", u).
		Int("status", resp.StatusCode).
		Int("bytes", len(b)).
		Dur("took", time.Since(started)).
		Msg("fetched")
	return b, nil
}
