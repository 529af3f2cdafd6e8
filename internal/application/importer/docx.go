package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// DocxConverter 将 DOCX 二进制转换为富文本 HTML
type DocxConverter interface {
	ConvertToHTML(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// markerParagraph 转换器会把分隔符包进段落，切分前先还原为裸分隔符
var markerParagraph = regexp.MustCompile(`(?i)<p\b[^>]*>\s*(?:<[a-z]+\b[^>]*>\s*)*` + regexp.QuoteMeta(ChapterMarker) + `\s*(?:</[a-z]+>\s*)*</p>`)

// ParseDocx 转换 DOCX 后按分隔符或标题切分章节
func (i *Importer) ParseDocx(ctx context.Context, r io.ReaderAt, size int64) ([]ParsedChapter, error) {
	ctx, span := tracer.Start(ctx, "importer.ParseDocx")
	defer span.End()

	if i.docx == nil {
		return nil, ErrNoConverter
	}

	markup, err := i.docx.ConvertToHTML(ctx, r, size)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrConverterUnavailable) {
			return nil, err
		}
		return nil, formatErrorf(FormatDocx, err, "document could not be converted")
	}

	chapters, err := SplitMarkup(markup)
	if err != nil {
		return nil, formatErrorf(FormatDocx, err, "converted document could not be parsed")
	}
	if len(chapters) == 0 {
		return nil, &EmptyResultError{Format: FormatDocx}
	}
	return chapters, nil
}

// SplitMarkup 将富文本切分为章节。
// 优先使用 ---CHAPTER--- 分隔符；否则以顶层 h1/h2 为边界；都没有时整体作为一章。
func SplitMarkup(markup string) ([]ParsedChapter, error) {
	if strings.Contains(markup, ChapterMarker) {
		return splitByMarker(markup)
	}
	return splitByHeadings(markup)
}

func splitByMarker(markup string) ([]ParsedChapter, error) {
	normalized := markerParagraph.ReplaceAllString(markup, ChapterMarker)

	// 每个分隔段落都对应一章，空段落也保留位置，只有全部为空时视为无内容
	segments := strings.Split(normalized, ChapterMarker)
	chapters := make([]ParsedChapter, 0, len(segments))
	hasContent := false
	for _, segment := range segments {
		nodes, err := parseNodes(segment)
		if err != nil {
			return nil, err
		}
		if nodeText(nodes...) == "" {
			chapters = append(chapters, ParsedChapter{Title: fmt.Sprintf("Chapter %d", len(chapters)+1)})
			continue
		}
		hasContent = true

		title := ""
		if idx := firstSignificant(nodes); idx >= 0 && isChapterHeading(nodes[idx]) {
			title = nodeText(nodes[idx])
			nodes = nodes[idx+1:]
		}
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(chapters)+1)
		}

		body, err := renderNodes(nodes)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ParsedChapter{Title: title, HTML: body})
	}
	if !hasContent {
		return nil, nil
	}
	return chapters, nil
}

func splitByHeadings(markup string) ([]ParsedChapter, error) {
	nodes, err := parseNodes(markup)
	if err != nil {
		return nil, err
	}

	var headings []int
	for idx, n := range nodes {
		if isChapterHeading(n) {
			headings = append(headings, idx)
		}
	}

	if len(headings) == 0 {
		whole := strings.TrimSpace(markup)
		if whole == "" || nodeText(nodes...) == "" {
			return nil, nil
		}
		return []ParsedChapter{{Title: "Chapter 1", HTML: whole}}, nil
	}

	chapters := make([]ParsedChapter, 0, len(headings)+1)

	if preface := nodes[:headings[0]]; utf8.RuneCountInString(nodeText(preface...)) > minContentRunes {
		body, err := renderNodes(preface)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ParsedChapter{Title: "Preface", HTML: body})
	}

	for n, start := range headings {
		end := len(nodes)
		if n+1 < len(headings) {
			end = headings[n+1]
		}

		title := nodeText(nodes[start])
		if title == "" {
			title = fmt.Sprintf("Chapter %d", n+1)
		}

		body, err := renderNodes(nodes[start+1 : end])
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ParsedChapter{Title: title, HTML: body})
	}
	return chapters, nil
}

