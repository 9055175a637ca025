package imdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/John-Robertt/imdbx/internal/extract"
)

// SearchKind 是一类搜索结果。
type SearchKind string

const (
	KindTitles SearchKind = "titles"
	KindActors SearchKind = "actors"
)

// SearchOptions 控制 Search 的结果种类与每类的数量上限。
type SearchOptions struct {
	Limit  int
	Titles bool
	Actors bool
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 10, Titles: true, Actors: true}
}

// SearchResult 按种类保存搜索结果。
//
// 未请求的种类为 nil；请求了但没有命中时是空切片（两者可以用 Has 区分）。
type SearchResult struct {
	Titles []*Movie
	Actors []*Person
}

// Has 判断某类结果是否被请求过。
func (r SearchResult) Has(k SearchKind) bool {
	switch k {
	case KindTitles:
		return r.Titles != nil
	case KindActors:
		return r.Actors != nil
	default:
		return false
	}
}

// Search 搜索影片与人物。每类一个请求，结果实体只带 ID 与显示名，均未加载。
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	var res SearchResult
	if opts.Titles {
		links, err := c.searchLinks(ctx, query, "tt", opts.Limit)
		if err != nil {
			return SearchResult{}, err
		}
		res.Titles = make([]*Movie, 0, len(links))
		for _, l := range links {
			m := c.Movie(l.id)
			m.originalTitle.Set(l.text)
			res.Titles = append(res.Titles, m)
		}
	}
	if opts.Actors {
		links, err := c.searchLinks(ctx, query, "nm", opts.Limit)
		if err != nil {
			return SearchResult{}, err
		}
		res.Actors = make([]*Person, 0, len(links))
		for _, l := range links {
			p := c.Person(l.id)
			p.name.Set(l.text)
			res.Actors = append(res.Actors, p)
		}
	}
	c.log.Debug().
		Str("query", query).
		Int("titles", len(res.Titles)).
		Int("actors", len(res.Actors)).
		Msg("search done")
	return res, nil
}

type link struct {
	id   string
	text string
}

func (c *Client) searchLinks(ctx context.Context, query, scope string, limit int) ([]link, error) {
	u := c.searchURL(query, scope)
	doc, err := c.document(ctx, u)
	if err != nil {
		return nil, err
	}

	cells := doc.Find("td.result_text")
	out := make([]link, 0, min(max(limit, 0), cells.Length()))
	for i := 0; i < cells.Length() && len(out) < limit; i++ {
		a := cells.Eq(i).Find("a").First()
		id, ok := hrefOf(cells.Eq(i))
		if !ok {
			return nil, structural(u, "第 %d 条搜索结果缺少链接", i+1)
		}
		out = append(out, link{id: id, text: extract.Sanitize(a.Text())})
	}
	return out, nil
}

// TopChart 读取 Top 250 榜单，按名次返回未加载的影片（带片名与评分）。
func (c *Client) TopChart(ctx context.Context) ([]*Movie, error) {
	u := c.chartURL()
	doc, err := c.document(ctx, u)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table.chart").First()
	if table.Length() == 0 {
		return nil, structural(u, "缺少榜单表格")
	}

	rows := extract.ReadTable(table)
	out := make([]*Movie, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, structural(u, "第 %d 行只有 %d 列", i+1, len(row))
		}
		id, ok := hrefOf(row[1])
		if !ok {
			return nil, structural(u, "第 %d 行缺少影片链接", i+1)
		}
		m := c.Movie(id)
		m.originalTitle.Set(extract.Sanitize(row[1].Find("a").First().Text()))

		raw := strings.TrimSpace(extract.Sanitize(row[2].Text()))
		if r, err := strconv.ParseFloat(raw, 64); err == nil {
			m.rating.Set(r)
		} else {
			c.log.Warn().Str("movie", id).Str("value", raw).Msg("chart rating is not a number")
		}
		out = append(out, m)
	}
	c.log.Debug().Int("movies", len(out)).Msg("top chart read")
	return out, nil
}
