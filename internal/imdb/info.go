package imdb

import (
	"context"

	"github.com/John-Robertt/imdbx/internal/extract"
	"github.com/John-Robertt/imdbx/internal/lazy"
)

// MovieInfo 是 Movie 的一次性快照，用于 JSON 输出与 NFO 生成。
// 引用的人物只带 ID（以及已经知道的姓名），不会因为快照而被加载。
type MovieInfo struct {
	ID              string              `json:"id"`
	URL             string              `json:"url"`
	OriginalTitle   string              `json:"original_title"`
	Year            *int                `json:"year,omitempty"`
	PlotSummary     string              `json:"plot_summary,omitempty"`
	Genres          []string            `json:"genres,omitempty"`
	MetacriticScore *int                `json:"metacritic_score,omitempty"`
	Rating          *float64            `json:"rating,omitempty"`
	Titles          []extract.Pair      `json:"titles"`
	ReleaseDates    []extract.Pair      `json:"release_dates"`
	Credits         []CreditSectionInfo `json:"credits,omitempty"`
	Cast            []CreditInfo        `json:"cast,omitempty"`
}

type CreditSectionInfo struct {
	Name     string       `json:"name"`
	CastList bool         `json:"cast_list"`
	Credits  []CreditInfo `json:"credits"`
}

type CreditInfo struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

type PersonInfo struct {
	ID          string                    `json:"id"`
	URL         string                    `json:"url"`
	Name        string                    `json:"name"`
	Biography   string                    `json:"biography"`
	Filmography []FilmographyCategoryInfo `json:"filmography,omitempty"`
}

type FilmographyCategoryInfo struct {
	Name    string                 `json:"name"`
	Entries []FilmographyEntryInfo `json:"entries"`
}

type FilmographyEntryInfo struct {
	Title    string  `json:"title"`
	MovieID  string  `json:"movie_id"`
	Year     *int    `json:"year,omitempty"`
	Category *string `json:"category,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Snapshot 确保影片已加载，然后复制出所有已设置的字段。
func (m *Movie) Snapshot(ctx context.Context) (MovieInfo, error) {
	if err := m.Load(ctx); err != nil {
		return MovieInfo{}, err
	}
	return m.Preview(), nil
}

// Preview 复制出当前已设置的字段，从不触发加载（列表页预填的片名、评分等）。
func (m *Movie) Preview() MovieInfo {
	var info MovieInfo
	_ = m.l.Do(func() error {
		info = MovieInfo{
			ID:  m.id,
			URL: m.URL(),
		}
		info.OriginalTitle, _ = m.originalTitle.Get()
		info.Year = ptrOf(m.year.Get())
		info.PlotSummary, _ = m.plot.Get()
		info.Genres, _ = m.genres.Get()
		info.MetacriticScore = ptrOf(m.metacritic.Get())
		info.Rating = ptrOf(m.rating.Get())
		info.Titles, _ = m.titles.Get()
		info.ReleaseDates, _ = m.releaseDates.Get()
		if sections, ok := m.credits.Get(); ok {
			info.Credits = make([]CreditSectionInfo, 0, len(sections))
			for _, s := range sections {
				info.Credits = append(info.Credits, CreditSectionInfo{
					Name:     s.Name,
					CastList: s.CastList,
					Credits:  creditInfos(s.Credits),
				})
			}
		}
		if cast, ok := m.cast.Get(); ok {
			info.Cast = creditInfos(cast)
		}
		return nil
	})
	return info
}

// Snapshot 确保人物已加载，然后复制出所有已设置的字段。
func (p *Person) Snapshot(ctx context.Context) (PersonInfo, error) {
	if err := p.Load(ctx); err != nil {
		return PersonInfo{}, err
	}
	return p.Preview(), nil
}

// Preview 复制出当前已设置的字段，从不触发加载。
func (p *Person) Preview() PersonInfo {
	var info PersonInfo
	_ = p.l.Do(func() error {
		info = PersonInfo{ID: p.id, URL: p.URL()}
		info.Name, _ = p.name.Get()
		info.Biography, _ = p.biography.Get()
		if cats, ok := p.filmography.Get(); ok {
			info.Filmography = make([]FilmographyCategoryInfo, 0, len(cats))
			for _, c := range cats {
				ci := FilmographyCategoryInfo{Name: c.Name, Entries: make([]FilmographyEntryInfo, 0, len(c.Entries))}
				for _, e := range c.Entries {
					ei := FilmographyEntryInfo{Title: e.Title, MovieID: e.Movie.ID()}
					ei.Year = ptrOf(e.Year, e.HasYear)
					ei.Category = ptrOf(e.Category, e.HasCategory)
					ei.Role = ptrOf(e.Role, e.HasRole)
					ci.Entries = append(ci.Entries, ei)
				}
				info.Filmography = append(info.Filmography, ci)
			}
		}
		return nil
	})
	return info
}

func creditInfos(credits []Credit) []CreditInfo {
	out := make([]CreditInfo, 0, len(credits))
	for _, c := range credits {
		ci := CreditInfo{PersonID: c.Person.ID(), Role: c.Role}
		if n, ok := lazy.Peek(&c.Person.l, &c.Person.name); ok {
			ci.Name = n
		}
		out = append(out, ci)
	}
	return out
}

func ptrOf[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}
