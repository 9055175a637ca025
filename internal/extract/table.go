package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row 是表格的一行：只包含数据单元格（td），按文档顺序排列。
type Row []*goquery.Selection

// Pair 是 Project 输出的一条 (key, value)。
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StructureError 表示页面缺少解析器认为“必须存在”的元素。
// 这类错误意味着页面结构变化或返回了非预期页面，不做静默降级。
type StructureError struct {
	What string
}

func (e *StructureError) Error() string {
	if e == nil || strings.TrimSpace(e.What) == "" {
		return "页面结构不符合预期"
	}
	return "页面结构不符合预期：" + e.What
}

// ReadTable 把一个表格节点读成二维的单元格列表。
//
// 优先使用第一个 tbody；没有 tbody 的表格直接以自身作为行来源。
// th 会被跳过。空表返回空切片，不是错误。
func ReadTable(table *goquery.Selection) []Row {
	if table == nil || table.Length() == 0 {
		return []Row{}
	}
	body := table.Find("tbody").First()
	if body.Length() == 0 {
		body = table.First()
	}

	rows := make([]Row, 0, 16)
	body.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		row := make(Row, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, td)
		})
		rows = append(rows, row)
	})
	return rows
}

// Project 从每行中取出两列，组成 (key, value) 列表。
//
// - second 可以为负数：从行尾开始计数（-1 = 最后一列），按每行的实际宽度解析
// - 列数不足 max(first, second)+1 的行跳过
// - key 列清理后为空的行跳过
// - hrefKey=true：key 取 key 列中第一个 <a> 的 href 的第三段（"/name/nm0000123/" -> "nm0000123"）
// - 保持输入顺序；重复 key 不合并
//
// hrefKey=true 但 key 列没有链接时返回 *StructureError（整页视为不兼容，不跳过该行）。
func Project(rows []Row, first, second int, hrefKey bool) ([]Pair, error) {
	if first < 0 {
		return nil, fmt.Errorf("first 列下标不能为负：%d", first)
	}
	out := make([]Pair, 0, len(rows))

	for _, row := range rows {
		sec := second
		if sec < 0 {
			sec = len(row) + sec
			if sec < 0 {
				continue
			}
		}
		if len(row) < max(first, sec)+1 {
			continue
		}

		keyText := Sanitize(row[first].Text())
		if keyText == "" {
			continue
		}

		key := keyText
		if hrefKey {
			href, ok := row[first].Find("a").First().Attr("href")
			if !ok {
				return nil, &StructureError{What: fmt.Sprintf("第 %d 列缺少链接（key=%q）", first, keyText)}
			}
			id, ok := HrefID(href)
			if !ok {
				return nil, &StructureError{What: fmt.Sprintf("无法从链接中取出 ID：%q", href)}
			}
			key = id
		}

		out = append(out, Pair{
			Key:   Sanitize(key),
			Value: Sanitize(row[sec].Text()),
		})
	}
	return out, nil
}

// HrefID 取出形如 "/name/nm0000123/?ref_=x" 的链接中的第三段（跟在两级前缀后面的 ID）。
func HrefID(href string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(href), "/")
	if len(parts) < 3 {
		return "", false
	}
	id := strings.TrimSpace(parts[2])
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	if id == "" {
		return "", false
	}
	return id, true
}
