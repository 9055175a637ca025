package imdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/imdbx/internal/extract"
	"github.com/John-Robertt/imdbx/internal/lazy"
)

// Credit 是演职员表中的一行：人物（未加载）+ 角色/职务文本。
type Credit struct {
	Person *Person
	Role   string
}

// CreditSection 是 fullcredits 页面中的一个分组（Directed by / Cast / Writing Credits ...）。
type CreditSection struct {
	Name     string
	CastList bool
	Credits  []Credit
}

// Movie 是一个影片条目。除 ID 外所有字段都在首次读取时加载。
//
// 加载抓取 releaseinfo 与标题页；构造时带 WithCredits() 则再抓 fullcredits。
type Movie struct {
	client      *Client
	id          string
	wantCredits bool

	l             lazy.Loader
	originalTitle lazy.Field[string]
	year          lazy.Field[int]
	titles        lazy.Field[[]extract.Pair]
	releaseDates  lazy.Field[[]extract.Pair]
	credits       lazy.Field[[]CreditSection]
	cast          lazy.Field[[]Credit]
	plot          lazy.Field[string]
	genres        lazy.Field[[]string]
	metacritic    lazy.Field[int]
	rating        lazy.Field[float64]
}

type MovieOption func(*Movie)

// WithCredits 让加载流程同时抓取 fullcredits 页面。
func WithCredits() MovieOption {
	return func(m *Movie) { m.wantCredits = true }
}

// Movie 构造一个未加载的影片；不会发起任何请求。
func (c *Client) Movie(id string, opts ...MovieOption) *Movie {
	m := &Movie{client: c, id: strings.TrimSpace(id)}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Movie) ID() string { return m.id }

func (m *Movie) URL() string { return m.client.titleURL(m.id) }

func (m *Movie) State() lazy.State { return m.l.State() }

// Err 返回加载失败时记录的错误。
func (m *Movie) Err() error { return m.l.Err() }

func (m *Movie) String() string {
	if t, ok := lazy.Peek(&m.l, &m.originalTitle); ok && t != "" {
		return m.id + " " + t
	}
	return m.id
}

// OriginalTitle 返回原始片名（releaseinfo 中 "(original title)" 一行）。
func (m *Movie) OriginalTitle(ctx context.Context) (string, error) {
	v, _, err := lazy.Get(&m.l, &m.originalTitle, m.loader(ctx))
	return v, err
}

// Year 返回首个上映日期的年份；日期缺失或无法解析时 ok=false。
func (m *Movie) Year(ctx context.Context) (int, bool, error) {
	return lazy.Get(&m.l, &m.year, m.loader(ctx))
}

// Titles 返回各地区的片名（地区, 片名），保持页面顺序。
func (m *Movie) Titles(ctx context.Context) ([]extract.Pair, error) {
	v, _, err := lazy.Get(&m.l, &m.titles, m.loader(ctx))
	return v, err
}

// ReleaseDates 返回各地区的上映日期（地区, 日期文本），保持页面顺序。
func (m *Movie) ReleaseDates(ctx context.Context) ([]extract.Pair, error) {
	v, _, err := lazy.Get(&m.l, &m.releaseDates, m.loader(ctx))
	return v, err
}

// Credits 返回完整演职员表。未请求 credits 时 ok=false（见 FetchCredits）。
func (m *Movie) Credits(ctx context.Context) ([]CreditSection, bool, error) {
	return lazy.Get(&m.l, &m.credits, m.loader(ctx))
}

// Cast 返回第一个名称含 "Cast" 的分组。
func (m *Movie) Cast(ctx context.Context) ([]Credit, bool, error) {
	return lazy.Get(&m.l, &m.cast, m.loader(ctx))
}

func (m *Movie) PlotSummary(ctx context.Context) (string, bool, error) {
	return lazy.Get(&m.l, &m.plot, m.loader(ctx))
}

func (m *Movie) Genres(ctx context.Context) ([]string, bool, error) {
	return lazy.Get(&m.l, &m.genres, m.loader(ctx))
}

func (m *Movie) MetacriticScore(ctx context.Context) (int, bool, error) {
	return lazy.Get(&m.l, &m.metacritic, m.loader(ctx))
}

func (m *Movie) Rating(ctx context.Context) (float64, bool, error) {
	return lazy.Get(&m.l, &m.rating, m.loader(ctx))
}

// Load 显式执行一次加载；已加载时什么都不做，已失败时返回记录的错误。
func (m *Movie) Load(ctx context.Context) error {
	return m.l.Ensure(m.loader(ctx))
}

// FetchCredits 为一个未请求 credits 的影片补抓 fullcredits；已有 credits 时什么都不做。
// 不改变加载状态。
func (m *Movie) FetchCredits(ctx context.Context) error {
	return m.l.Do(func() error {
		if m.credits.IsSet() {
			return nil
		}
		if err := m.readFullCredits(ctx); err != nil {
			return &LoadError{Kind: "movie", ID: m.id, Err: err}
		}
		return nil
	})
}

func (m *Movie) loader(ctx context.Context) func() error {
	return func() error {
		if err := m.load(ctx); err != nil {
			m.client.log.Warn().Err(err).Str("movie", m.id).Msg("load failed")
			return &LoadError{Kind: "movie", ID: m.id, Err: err}
		}
		return nil
	}
}

// load 在 Loader 的锁内执行。
func (m *Movie) load(ctx context.Context) error {
	started := time.Now()
	if err := m.readReleaseInfo(ctx); err != nil {
		return err
	}
	if err := m.readTitlePage(ctx); err != nil {
		return err
	}
	// FetchCredits 可能已经填好 credits；已设置的字段不再覆盖。
	if m.wantCredits && !m.credits.IsSet() {
		if err := m.readFullCredits(ctx); err != nil {
			return err
		}
	}
	m.client.log.Debug().
		Str("movie", m.id).
		Bool("credits", m.wantCredits).
		Dur("took", time.Since(started)).
		Msg("movie loaded")
	return nil
}

const originalTitleKey = "(original title)"

func (m *Movie) readReleaseInfo(ctx context.Context) error {
	u := m.URL() + "/releaseinfo"
	doc, err := m.client.document(ctx, u)
	if err != nil {
		return err
	}

	akas := doc.Find("table.akas-table-test-only").First()
	if akas.Length() == 0 {
		return structural(u, "缺少 AKA 表")
	}
	titles, err := extract.Project(extract.ReadTable(akas), 0, 1, false)
	if err != nil {
		return &PageError{URL: u, Err: err}
	}

	// 上映日期表缺失视为没有日期（年份随之缺失）。
	dates, err := extract.Project(extract.ReadTable(doc.Find("table.release-dates-table-test-only").First()), 0, 1, false)
	if err != nil {
		return &PageError{URL: u, Err: err}
	}

	original := ""
	found := false
	for _, p := range titles {
		if p.Key == originalTitleKey {
			original, found = p.Value, true
			break
		}
	}
	if !found {
		return structural(u, "AKA 表中没有 %q", originalTitleKey)
	}

	m.titles.Set(titles)
	m.releaseDates.Set(dates)
	m.originalTitle.Set(original)
	if y, ok := yearOf(dates); ok {
		m.year.Set(y)
	}
	return nil
}

// yearOf 取第一条上映日期的末 4 个字符（按 rune 计）作为年份。
func yearOf(dates []extract.Pair) (int, bool) {
	if len(dates) == 0 {
		return 0, false
	}
	v := []rune(dates[0].Value)
	if len(v) > 4 {
		v = v[len(v)-4:]
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

var ratingSelectors = []string{
	"div[data-testid='hero-rating-bar__aggregate-rating__score'] span",
	"span.sc-7ab21ed2-1.jGRxWM",
}

func (m *Movie) readTitlePage(ctx context.Context) error {
	u := m.URL()
	doc, err := m.client.document(ctx, u)
	if err != nil {
		return err
	}

	if s := doc.Find("span[data-testid='plot-l']").First(); s.Length() > 0 {
		m.plot.Set(extract.Sanitize(s.Text()))
	}

	if box := doc.Find("div[data-testid='genres']").First(); box.Length() > 0 {
		genres := make([]string, 0, 4)
		box.Find("a").Each(func(_ int, a *goquery.Selection) {
			if g := extract.Sanitize(a.Text()); g != "" {
				genres = append(genres, g)
			}
		})
		m.genres.Set(genres)
	}

	if s := doc.Find("span.score-meta").First(); s.Length() > 0 {
		raw := extract.Sanitize(s.Text())
		if n, err := strconv.Atoi(raw); err == nil {
			m.metacritic.Set(n)
		} else {
			m.client.log.Warn().Str("movie", m.id).Str("value", raw).Msg("metacritic score is not an integer")
		}
	}

	for _, sel := range ratingSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		raw := extract.Sanitize(s.Text())
		if r, err := strconv.ParseFloat(raw, 64); err == nil {
			m.rating.Set(r)
		} else {
			m.client.log.Warn().Str("movie", m.id).Str("value", raw).Msg("rating is not a number")
		}
		break
	}
	return nil
}

func (m *Movie) readFullCredits(ctx context.Context) error {
	u := m.URL() + "/fullcredits"
	doc, err := m.client.document(ctx, u)
	if err != nil {
		return err
	}

	content := doc.Find("div#fullcredits_content").First()
	if content.Length() == 0 {
		return structural(u, "缺少 fullcredits_content")
	}

	headers := content.Find("h4")
	tables := content.Find("table")
	n := min(headers.Length(), tables.Length())

	sections := make([]CreditSection, 0, n)
	for i := 0; i < n; i++ {
		table := tables.Eq(i)
		castList := isCastList(table)

		first, second := 0, -1
		if castList {
			first, second = 1, 3
		}
		pairs, err := extract.Project(extract.ReadTable(table), first, second, true)
		if err != nil {
			return &PageError{URL: u, Err: err}
		}

		credits := make([]Credit, 0, len(pairs))
		for _, p := range pairs {
			credits = append(credits, Credit{Person: m.client.Person(p.Key), Role: p.Value})
		}
		sections = append(sections, CreditSection{
			Name:     extract.Sanitize(headers.Eq(i).Text()),
			CastList: castList,
			Credits:  credits,
		})
	}
	m.credits.Set(sections)

	for _, s := range sections {
		if strings.Contains(s.Name, "Cast") {
			m.cast.Set(s.Credits)
			return nil
		}
	}
	return structural(u, "没有名称包含 \"Cast\" 的分组")
}

// isCastList 要求 class 恰好是 "cast_list"。
func isCastList(table *goquery.Selection) bool {
	cls, _ := table.Attr("class")
	f := strings.Fields(cls)
	return len(f) == 1 && f[0] == "cast_list"
}
