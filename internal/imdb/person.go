package imdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/John-Robertt/imdbx/internal/extract"
	"github.com/John-Robertt/imdbx/internal/lazy"
)

// FilmographyEntry 是作品表中的一行。Movie 未加载，只带 ID。
type FilmographyEntry struct {
	Title string
	Movie *Movie

	Year    int
	HasYear bool

	// Category / Role 取自 <br> 两侧的文本；没有 <br> 时两者都缺失。
	Category    string
	HasCategory bool
	Role        string
	HasRole     bool
}

// FilmographyCategory 是作品表的一个分组（Actor / Director / Producer ...）。
type FilmographyCategory struct {
	Name    string
	Entries []FilmographyEntry
}

// Person 是一个人物条目。加载抓取人物主页与 bio 页。
type Person struct {
	client          *Client
	id              string
	wantFilmography bool

	l           lazy.Loader
	name        lazy.Field[string]
	biography   lazy.Field[string]
	filmography lazy.Field[[]FilmographyCategory]
}

type PersonOption func(*Person)

// WithFilmography 让加载流程同时解析作品表。
func WithFilmography() PersonOption {
	return func(p *Person) { p.wantFilmography = true }
}

// Person 构造一个未加载的人物；不会发起任何请求。
func (c *Client) Person(id string, opts ...PersonOption) *Person {
	p := &Person{client: c, id: strings.TrimSpace(id)}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Person) ID() string { return p.id }

func (p *Person) URL() string { return p.client.nameURL(p.id) }

func (p *Person) State() lazy.State { return p.l.State() }

func (p *Person) Err() error { return p.l.Err() }

func (p *Person) String() string {
	if n, ok := lazy.Peek(&p.l, &p.name); ok && n != "" {
		return p.id + " " + n
	}
	return p.id
}

func (p *Person) Name(ctx context.Context) (string, error) {
	v, _, err := lazy.Get(&p.l, &p.name, p.loader(ctx))
	return v, err
}

func (p *Person) Biography(ctx context.Context) (string, error) {
	v, _, err := lazy.Get(&p.l, &p.biography, p.loader(ctx))
	return v, err
}

// Filmography 返回作品表。未请求 filmography 时 ok=false（见 FetchFilmography）。
func (p *Person) Filmography(ctx context.Context) ([]FilmographyCategory, bool, error) {
	return lazy.Get(&p.l, &p.filmography, p.loader(ctx))
}

func (p *Person) Load(ctx context.Context) error {
	return p.l.Ensure(p.loader(ctx))
}

// FetchFilmography 为一个未请求 filmography 的人物补抓作品表；已有时什么都不做。
func (p *Person) FetchFilmography(ctx context.Context) error {
	return p.l.Do(func() error {
		if p.filmography.IsSet() {
			return nil
		}
		u := p.URL()
		doc, err := p.client.document(ctx, u)
		if err != nil {
			return &LoadError{Kind: "person", ID: p.id, Err: err}
		}
		cats, err := p.parseFilmography(u, doc)
		if err != nil {
			return &LoadError{Kind: "person", ID: p.id, Err: err}
		}
		p.filmography.Set(cats)
		return nil
	})
}

func (p *Person) loader(ctx context.Context) func() error {
	return func() error {
		if err := p.load(ctx); err != nil {
			p.client.log.Warn().Err(err).Str("person", p.id).Msg("load failed")
			return &LoadError{Kind: "person", ID: p.id, Err: err}
		}
		return nil
	}
}

func (p *Person) load(ctx context.Context) error {
	started := time.Now()

	u := p.URL()
	doc, err := p.client.document(ctx, u)
	if err != nil {
		return err
	}
	name := doc.Find("span.itemprop").First()
	if name.Length() == 0 {
		return structural(u, "缺少人物姓名")
	}
	p.name.Set(extract.Sanitize(name.Text()))

	bu := u + "/bio"
	bio, err := p.client.document(ctx, bu)
	if err != nil {
		return err
	}
	para := bio.Find("div.soda.odd").First().Find("p").First()
	if para.Length() == 0 {
		return structural(bu, "缺少简介段落")
	}
	p.biography.Set(extract.Sanitize(para.Text()))

	// 作品表来自主页，放在简介之后解析；FetchFilmography 已填好时不再覆盖。
	if p.wantFilmography && !p.filmography.IsSet() {
		cats, err := p.parseFilmography(u, doc)
		if err != nil {
			return err
		}
		p.filmography.Set(cats)
	}
	p.client.log.Debug().
		Str("person", p.id).
		Bool("filmography", p.wantFilmography).
		Dur("took", time.Since(started)).
		Msg("person loaded")
	return nil
}

// 分组标题前是 8 个字符的折叠控件文本（清理 &nbsp; 后为 "HideShow"）。
const filmoHeadPrefix = 8

func (p *Person) parseFilmography(u string, doc *goquery.Document) ([]FilmographyCategory, error) {
	root := doc.Find("div#filmography").First()
	if root.Length() == 0 {
		return nil, structural(u, "缺少作品表")
	}

	heads := root.Find("div.head")
	sections := root.Find("div.filmo-category-section")
	n := min(heads.Length(), sections.Length())

	cats := make([]FilmographyCategory, 0, n)
	for i := 0; i < n; i++ {
		entries := make([]FilmographyEntry, 0, 16)
		var rowErr error
		sections.Eq(i).Find("div.filmo-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			e, err := p.parseFilmoRow(u, row)
			if err != nil {
				rowErr = err
				return false
			}
			entries = append(entries, e)
			return true
		})
		if rowErr != nil {
			return nil, rowErr
		}
		cats = append(cats, FilmographyCategory{
			Name:    dropRunes(extract.Sanitize(heads.Eq(i).Text()), filmoHeadPrefix),
			Entries: entries,
		})
	}
	return cats, nil
}

func (p *Person) parseFilmoRow(u string, row *goquery.Selection) (FilmographyEntry, error) {
	var e FilmographyEntry
	e.Title = extract.Sanitize(row.Find("b").First().Text())

	id, ok := hrefOf(row)
	if !ok {
		return e, structural(u, "作品行缺少影片链接（%q）", e.Title)
	}
	e.Movie = p.client.Movie(id)

	if ys := takeRunes(extract.Sanitize(row.Find("span.year_column").First().Text()), 4); ys != "" {
		if y, err := strconv.Atoi(ys); err == nil {
			e.Year, e.HasYear = y, true
		}
	}

	if br := row.Find("br").First(); br.Length() > 0 {
		node := br.Nodes[0]
		if node.PrevSibling != nil {
			e.Category, e.HasCategory = extract.Sanitize(nodeText(node.PrevSibling)), true
		}
		if node.NextSibling != nil {
			e.Role, e.HasRole = extract.Sanitize(nodeText(node.NextSibling)), true
		}
	}
	return e, nil
}

// nodeText 返回单个兄弟节点（文本或元素）的文本内容。
func nodeText(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.WriteString(nodeText(c))
		}
		return b.String()
	default:
		return ""
	}
}

func takeRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func dropRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return ""
	}
	return string(r[n:])
}
