package access

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

// CountWords 统计正文词数
// 编辑器 JSON 文档只统计 text 字段，HTML 去掉标签后按空白切分
func CountWords(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}

	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && gjson.Valid(trimmed) {
		var b strings.Builder
		collectText(gjson.Parse(trimmed), &b)
		return len(strings.Fields(b.String()))
	}

	text := markupTag.ReplaceAllString(trimmed, " ")
	return len(strings.Fields(html.UnescapeString(text)))
}

// collectText 深度遍历 JSON，收集所有 text 字符串值
func collectText(node gjson.Result, b *strings.Builder) {
	switch {
	case node.IsObject():
		node.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "text" && value.Type == gjson.String {
				b.WriteString(value.String())
				b.WriteByte(' ')
				return true
			}
			collectText(value, b)
			return true
		})
	case node.IsArray():
		node.ForEach(func(_, value gjson.Result) bool {
			collectText(value, b)
			return true
		})
	}
}
