package importer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// chapterLine 行首的 "Chapter <数字>"，大小写不敏感
	chapterLine    = regexp.MustCompile(`(?im)^[ \t]*chapter[ \t]+\d+`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

// ParsePastedText 解析粘贴的纯文本。
// 章节边界只在原始文本上检测一次，生成的 HTML 不再参与切分。
func (i *Importer) ParsePastedText(text string) ([]ParsedChapter, error) {
	text = strings.ToValidUTF8(text, "\uFFFD")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if strings.TrimSpace(text) == "" {
		return nil, &EmptyResultError{Format: FormatText}
	}

	var chapters []ParsedChapter
	switch {
	case strings.Contains(text, ChapterMarker):
		chapters = splitTextByMarker(text)
	default:
		chapters = splitTextByChapterLines(text)
	}

	if len(chapters) == 0 {
		return nil, &EmptyResultError{Format: FormatText}
	}
	return chapters, nil
}

func splitTextByMarker(text string) []ParsedChapter {
	var chapters []ParsedChapter
	for _, segment := range strings.Split(text, ChapterMarker) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		title, rest := splitFirstLine(segment)
		if rest == "" {
			rest = title
		}
		chapters = append(chapters, ParsedChapter{Title: title, HTML: TextToHTML(rest)})
	}
	return chapters
}

func splitTextByChapterLines(text string) []ParsedChapter {
	matches := chapterLine.FindAllStringIndex(text, -1)
	if len(matches) < 2 {
		return []ParsedChapter{{Title: "Chapter 1", HTML: TextToHTML(strings.TrimSpace(text))}}
	}

	chapters := make([]ParsedChapter, 0, len(matches)+1)

	// 首个章节行之前的文字（献词、署名）原样保留为序章
	if preface := strings.TrimSpace(text[:matches[0][0]]); preface != "" {
		chapters = append(chapters, ParsedChapter{Title: "Preface", HTML: TextToHTML(preface)})
	}

	for n, m := range matches {
		end := len(text)
		if n+1 < len(matches) {
			end = matches[n+1][0]
		}
		title, rest := splitFirstLine(strings.TrimSpace(text[m[0]:end]))
		if title == "" {
			title = fmt.Sprintf("Chapter %d", n+1)
		}
		chapters = append(chapters, ParsedChapter{Title: title, HTML: TextToHTML(rest)})
	}
	return chapters
}

func splitFirstLine(s string) (first, rest string) {
	first, rest, _ = strings.Cut(s, "\n")
	return strings.TrimSpace(first), strings.TrimSpace(rest)
}

// TextToHTML 纯文本转段落：空行分段，段内换行转 <br>
func TextToHTML(text string) string {
	var sb strings.Builder
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for n, line := range lines {
			lines[n] = html.EscapeString(strings.TrimSpace(line))
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>")
	}
	return sb.String()
}
