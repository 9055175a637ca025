package extract

import "strings"

const nbsp = "\u00a0"

// Sanitize 清理从页面中取出的文本（排版残留：换行、&nbsp;、连续空格）。
//
// 规则（顺序固定）：
// 1) 删除所有 '\n'
// 2) 删除所有 U+00A0（不是替换成空格）
// 3) 只要还存在两个相邻空格，就把它们两两合并成一个，直到不存在为止
// 4) 去掉首尾的 ' ' / '\n' / U+00A0
//
// 缺失的文本（nil 节点）在 Go 里统一表示为 ""。
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, nbsp, "")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.Trim(s, " \n"+nbsp)
}
