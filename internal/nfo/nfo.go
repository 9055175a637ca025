package nfo

import (
	"encoding/xml"
	"strings"

	"github.com/John-Robertt/imdbx/internal/imdb"
)

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title         string `xml:"title"`
	OriginalTitle string `xml:"originaltitle"`
	Year          int    `xml:"year,omitempty"`
	Plot          string `xml:"plot,omitempty"`

	Ratings  *ratings `xml:"ratings,omitempty"`
	UniqueID uniqueID `xml:"uniqueid"`

	Genres    []string `xml:"genre,omitempty"`
	Directors []string `xml:"director,omitempty"`
	Credits   []string `xml:"credits,omitempty"`
	Actors    []actor  `xml:"actor,omitempty"`

	Premiered string `xml:"premiered,omitempty"`
	Website   string `xml:"website,omitempty"`
}

type ratings struct {
	Rating []rating `xml:"rating"`
}

type rating struct {
	Name    string  `xml:"name,attr"`
	Max     int     `xml:"max,attr"`
	Default bool    `xml:"default,attr,omitempty"`
	Value   float64 `xml:"value"`
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:",chardata"`
}

type actor struct {
	Name  string `xml:"name"`
	Role  string `xml:"role,omitempty"`
	Order int    `xml:"order"`
}

const (
	directorsSection = "Directed by"
	writersSection   = "Writing Credits"
)

// Encode 把 MovieInfo 转成 Kodi/Jellyfin/Emby 可读取的 NFO（XML）。
//
// 规则：
// - 只使用快照中已有的数据；姓名未知的人物不输出（调用方负责事先加载需要的人物）
// - title 为空时回退到 IMDb ID
// - 列表去空白、去重、保持输入顺序
func Encode(info imdb.MovieInfo) ([]byte, error) {
	id := strings.TrimSpace(info.ID)
	title := strings.TrimSpace(info.OriginalTitle)
	if title == "" {
		title = id
	}

	m := movie{
		Title:         title,
		OriginalTitle: title,
		Plot:          strings.TrimSpace(info.PlotSummary),
		UniqueID:      uniqueID{Type: "imdb", Default: true, Value: id},
		Genres:        normList(info.Genres),
		Website:       strings.TrimSpace(info.URL),
	}
	if info.Year != nil {
		m.Year = *info.Year
	}
	if len(info.ReleaseDates) > 0 {
		m.Premiered = strings.TrimSpace(info.ReleaseDates[0].Value)
	}

	var rs []rating
	if info.Rating != nil {
		rs = append(rs, rating{Name: "imdb", Max: 10, Default: true, Value: *info.Rating})
	}
	if info.MetacriticScore != nil {
		rs = append(rs, rating{Name: "metacritic", Max: 100, Value: float64(*info.MetacriticScore)})
	}
	if len(rs) > 0 {
		m.Ratings = &ratings{Rating: rs}
	}

	for _, s := range info.Credits {
		switch {
		case strings.HasPrefix(s.Name, directorsSection):
			m.Directors = append(m.Directors, names(s.Credits)...)
		case strings.HasPrefix(s.Name, writersSection):
			m.Credits = append(m.Credits, names(s.Credits)...)
		}
	}
	m.Directors = normList(m.Directors)
	m.Credits = normList(m.Credits)

	seen := make(map[string]struct{}, len(info.Cast))
	for _, c := range info.Cast {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[c.PersonID]; ok {
			continue
		}
		seen[c.PersonID] = struct{}{}
		m.Actors = append(m.Actors, actor{Name: name, Role: strings.TrimSpace(c.Role), Order: len(m.Actors)})
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	return append([]byte(header), b...), nil
}

func names(credits []imdb.CreditInfo) []string {
	out := make([]string, 0, len(credits))
	for _, c := range credits {
		out = append(out, c.Name)
	}
	return out
}

func normList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
