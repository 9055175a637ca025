// Package record 把抓取到的页面原样落盘，用于离线排查解析问题。
//
// 只写不读：记录目录不是缓存，进程内外都不会用它来跳过请求。
package record

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/imdbx/internal/infra/fsx"
)

// Upstream 是被装饰的抓取器。
type Upstream interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Recorder 包装一个抓取器：成功抓取的页面写到 <Dir>/<host>/<slug>.html。
//
// 写盘失败只记 warn，不影响抓取结果。
type Recorder struct {
	Dir  string
	Next Upstream
	Log  zerolog.Logger
}

func New(dir string, next Upstream, log zerolog.Logger) *Recorder {
	return &Recorder{
		Dir:  filepath.Clean(strings.TrimSpace(dir)),
		Next: next,
		Log:  log,
	}
}

func (r *Recorder) Fetch(ctx context.Context, u string) ([]byte, error) {
	if r == nil || r.Next == nil {
		return nil, errors.New("record: upstream 不能为空")
	}
	b, err := r.Next.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	if werr := r.write(u, b); werr != nil {
		r.Log.Warn().Err(werr).Str("url", u).Msg("record page failed")
	}
	return b, nil
}

func (r *Recorder) write(u string, b []byte) error {
	dir, name, err := r.PagePath(u)
	if err != nil {
		return err
	}
	if err := fsx.WriteFileAtomicReplace(dir, name, b); err != nil {
		return err
	}
	r.Log.Debug().Str("url", u).Str("file", filepath.Join(dir, name)).Msg("page recorded")
	return nil
}

var unsafeRE = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PagePath 返回某个 URL 对应的记录位置（目录, 文件名）。
//
// "https://www.imdb.com/title/tt0111161/releaseinfo" -> ("<Dir>/www.imdb.com", "title_tt0111161_releaseinfo.html")
func (r *Recorder) PagePath(raw string) (string, string, error) {
	if strings.TrimSpace(r.Dir) == "" || r.Dir == "." {
		return "", "", fmt.Errorf("record: 目录不能为空")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	host := safe(u.Host)
	if host == "" {
		return "", "", fmt.Errorf("record: URL 缺少 host：%q", raw)
	}

	slug := safe(strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "_"))
	if u.RawQuery != "" {
		slug += "__" + safe(u.RawQuery)
	}
	if slug == "" {
		slug = "index"
	}
	return filepath.Join(r.Dir, host), slug + ".html", nil
}

func safe(s string) string {
	return strings.Trim(unsafeRE.ReplaceAllString(s, "-"), "-")
}
