// Package imdb 把 IMDb 的 HTML 页面解析为可按需加载的 Movie / Person 对象图。
//
// 实体构造很便宜（只有 ID，或再加几个来自列表页的显示字段），字段在第一次读取时
// 才抓取并解析所需页面，且每个实体最多加载一次。Movie 的演职员是未加载的 Person，
// Person 的作品是未加载的 Movie；引用图只会展开到调用方真正读取的深度。
//
// 约束：不做跨进程缓存、不按 ID 去重实体、不重试、不限速。
package imdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/imdbx/internal/extract"
)

const DefaultBaseURL = "https://www.imdb.com"

// Fetcher 把 URL 变成原始页面字节（网络/HTTP 失败时返回错误）。
// 实现不应做缓存与重试；*httpx.Fetcher 是默认实现。
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client 持有抓取器与站点地址，是所有实体共享的只读依赖。
type Client struct {
	fetcher Fetcher
	base    string
	log     zerolog.Logger
}

type Option func(*Client)

// WithBaseURL 替换站点根地址（镜像站或测试服务器）。
func WithBaseURL(u string) Option {
	return func(c *Client) {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u != "" {
			c.base = u
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(f Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher: f,
		base:    DefaultBaseURL,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) titleURL(id string) string { return c.base + "/title/" + url.PathEscape(id) }

func (c *Client) nameURL(id string) string { return c.base + "/name/" + url.PathEscape(id) }

func (c *Client) searchURL(query, scope string) string {
	return c.base + "/find?q=" + url.QueryEscape(query) + "&s=" + scope
}

func (c *Client) chartURL() string { return c.base + "/chart/top" }

// document 抓取并解析一个页面。所有错误都带上页面 URL。
func (c *Client) document(ctx context.Context, u string) (*goquery.Document, error) {
	if c.fetcher == nil {
		return nil, &PageError{URL: u, Err: errors.New("fetcher 不能为空")}
	}
	b, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, &PageError{URL: u, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, &PageError{URL: u, Err: err}
	}
	return doc, nil
}

// PageError 把错误与出错页面关联起来（抓取失败或页面结构不符合预期）。
type PageError struct {
	URL string
	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("页面 %s：%v", e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// LoadError 表示某个实体的加载失败。失败后的实体不会重试加载。
type LoadError struct {
	Kind string // "movie" 或 "person"
	ID   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("加载 %s %s 失败：%v", e.Kind, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsStructural 判断 err 是否源于页面结构不符合预期（而不是网络失败）。
func IsStructural(err error) bool {
	var se *extract.StructureError
	return errors.As(err, &se)
}

func structural(u, format string, args ...any) error {
	return &PageError{URL: u, Err: &extract.StructureError{What: fmt.Sprintf(format, args...)}}
}

// hrefOf 取 selection 中第一个链接的 ID 段。
func hrefOf(s *goquery.Selection) (string, bool) {
	href, ok := s.Find("a").First().Attr("href")
	if !ok {
		return "", false
	}
	return extract.HrefID(href)
}
