package extract

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustTable(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}
	sel := doc.Find("table").First()
	if sel.Length() == 0 {
		t.Fatalf("fixture 中没有 table")
	}
	return sel
}

func cellTexts(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, 0, len(r))
		for _, c := range r {
			line = append(line, Sanitize(c.Text()))
		}
		out = append(out, line)
	}
	return out
}

func TestReadTable_SkipsHeaderCells(t *testing.T) {
	table := mustTable(t, `<table>
		<thead><tr><th>Country</th><th>Date</th></tr></thead>
		<tbody>
			<tr><th>ignored</th><td>USA</td><td>14 October 1994</td></tr>
			<tr><td>Japan</td><td>16 April 1995</td></tr>
		</tbody>
	</table>`)

	got := cellTexts(ReadTable(table))
	want := [][]string{
		{"USA", "14 October 1994"},
		{"Japan", "16 April 1995"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadTable=%v，期望 %v", got, want)
	}
}

func TestReadTable_WithoutTbody(t *testing.T) {
	// HTML 解析器总会补出 tbody；这里直接把 tbody 当作表格节点传入，它内部没有 tbody，
	// 应该以自身作为行来源。
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<table><tr><td>a</td><td>b</td></tr></table>`))
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}
	rows := ReadTable(doc.Find("tbody"))
	if got, want := cellTexts(rows), [][]string{{"a", "b"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadTable=%v，期望 %v", got, want)
	}
}

func TestReadTable_Empty(t *testing.T) {
	table := mustTable(t, `<table></table>`)
	rows := ReadTable(table)
	if rows == nil || len(rows) != 0 {
		t.Fatalf("空表应返回空切片，实际 %#v", rows)
	}
	if got := ReadTable(nil); len(got) != 0 {
		t.Fatalf("nil 表应返回空切片，实际 %#v", got)
	}
}

func TestProject_SkipsEmptyKeysAndShortRows(t *testing.T) {
	table := mustTable(t, `<table><tbody>
		<tr><td></td><td>empty key</td></tr>
		<tr><td> </td><td>space key</td></tr>
		<tr><td>&nbsp;</td><td>nbsp key</td></tr>
		<tr><td>only one cell</td></tr>
		<tr><td>(original title)</td><td>The Movie</td></tr>
		<tr><td>Japan</td><td>Eiga</td></tr>
		<tr><td>Japan</td><td>Eiga 2</td></tr>
	</tbody></table>`)

	got, err := Project(ReadTable(table), 0, 1, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []Pair{
		{Key: "(original title)", Value: "The Movie"},
		{Key: "Japan", Value: "Eiga"},
		{Key: "Japan", Value: "Eiga 2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Project=%+v，期望 %+v", got, want)
	}
}

func TestProject_NegativeSecondSelectsLastCell(t *testing.T) {
	table := mustTable(t, `<table><tbody>
		<tr><td>k1</td><td>x</td><td>y</td><td>last1</td></tr>
		<tr><td>k2</td><td>last2</td></tr>
		<tr><td>k3</td></tr>
	</tbody></table>`)

	got, err := Project(ReadTable(table), 0, -1, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []Pair{
		{Key: "k1", Value: "last1"},
		{Key: "k2", Value: "last2"},
		// 单列行：-1 解析为第 0 列，key 与 value 是同一个单元格。
		{Key: "k3", Value: "k3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Project=%+v，期望 %+v", got, want)
	}

	// first 比行宽还大的时候：无论 second 如何都要跳过。
	got, err = Project(ReadTable(table), 3, -1, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].Value != "last1" || got[0].Key != "last1" {
		t.Fatalf("first=3 时只应保留第一行，实际 %+v", got)
	}

	// -5 超出任何行宽：全部跳过。
	got, err = Project(ReadTable(table), 0, -5, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("期望没有输出，实际 %+v", got)
	}
}

func TestProject_HrefKey(t *testing.T) {
	table := mustTable(t, `<table class="cast_list"><tbody>
		<tr><td class="primary_photo"><a href="/name/nm0000209/"><img alt="Tim Robbins"></a></td>
			<td><a href="/name/nm0000209/?ref_=ttfc_fc_cl_t1"> Tim Robbins</a></td>
			<td class="ellipsis">...</td>
			<td class="character"><a href="/title/tt0111161/characters/nm0000209">Andy Dufresne</a></td></tr>
		<tr><td colspan="4" class="castlist_label">Rest of cast listed alphabetically:</td></tr>
		<tr><td></td><td><a href="/name/nm0000151/">Morgan Freeman</a></td><td>...</td><td>Ellis Boyd 'Red' Redding</td></tr>
	</tbody></table>`)

	got, err := Project(ReadTable(table), 1, 3, true)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []Pair{
		{Key: "nm0000209", Value: "Andy Dufresne"},
		{Key: "nm0000151", Value: "Ellis Boyd 'Red' Redding"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Project=%+v，期望 %+v", got, want)
	}
}

func TestProject_NegativeFirstIsError(t *testing.T) {
	table := mustTable(t, `<table><tbody><tr><td>a</td><td>b</td></tr></tbody></table>`)

	got, err := Project(ReadTable(table), -1, 1, false)
	if err == nil || got != nil {
		t.Fatalf("Project=(%v,%v)，期望 (nil, error)", got, err)
	}
}

func TestProject_HrefKeyWithoutAnchorIsFatal(t *testing.T) {
	table := mustTable(t, `<table><tbody>
		<tr><td><a href="/name/nm1/">Someone</a></td><td>Director</td></tr>
		<tr><td>No Link</td><td>Writer</td></tr>
	</tbody></table>`)

	_, err := Project(ReadTable(table), 0, -1, true)
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("期望 *StructureError，实际 %v", err)
	}
}

func TestHrefID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/name/nm0000123/", "nm0000123", true},
		{"/title/tt0111161/?ref_=chttp_t_1", "tt0111161", true},
		{"/title/tt0111161?ref_=fn_al_tt_1", "tt0111161", true},
		{"/name/", "", false},
		{"nm1", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := HrefID(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("HrefID(%q)=(%q,%v)，期望 (%q,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
