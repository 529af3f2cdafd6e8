// Package docconv 提供 DOCX 到 HTML 的转换实现
package docconv

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
)

// ErrNotDocx 输入不是有效的 DOCX 包
var ErrNotDocx = errors.New("input is not a valid docx package")

// LocalConverter 进程内转换器，直接读取 word/document.xml。
// 只保留段落、标题、粗体、斜体与换行，忽略图片、批注和修订。
type LocalConverter struct {
	maxPartBytes int64
}

// NewLocalConverter 创建本地转换器
func NewLocalConverter(maxPartBytes int64) *LocalConverter {
	if maxPartBytes <= 0 {
		maxPartBytes = 50 << 20
	}
	return &LocalConverter{maxPartBytes: maxPartBytes}
}

// ConvertToHTML 实现 importer.DocxConverter
func (c *LocalConverter) ConvertToHTML(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	_, span := tracer.Start(ctx, "docconv.LocalConverter.ConvertToHTML")
	defer span.End()

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	data, err := c.readPart(zr, documentPart)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if data == nil {
		return "", fmt.Errorf("%w: %s is missing", ErrNotDocx, documentPart)
	}

	// 样式表缺失或损坏时退回按样式名识别标题
	var levels map[string]int
	if styles, err := c.readPart(zr, stylesPart); err == nil && styles != nil {
		levels = headingStyles(styles)
	}

	out, err := renderDocument(data, levels)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return out, nil
}

// readPart 读取包内部件，不存在时返回 nil
func (c *LocalConverter) readPart(zr *zip.Reader, name string) ([]byte, error) {
	var part *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			part = f
			break
		}
	}
	if part == nil {
		return nil, nil
	}
	if part.UncompressedSize64 > uint64(c.maxPartBytes) {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, c.maxPartBytes)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, c.maxPartBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > c.maxPartBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, c.maxPartBytes)
	}
	return data, nil
}

// headingStyles 从 styles.xml 得到 styleId 到标题级别的映射。
// 本地化的 Word 样式 ID 不固定（中文版为 "1"、"2"），按样式名或大纲级别识别。
func headingStyles(data []byte) map[string]int {
	levels := make(map[string]int)
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		id      string
		level   int
		inStyle bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return levels
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				inStyle = attr(t, "type") == "paragraph"
				id, level = attr(t, "styleId"), 0
			case "name":
				if inStyle && level == 0 {
					level = styleNameLevel(attr(t, "val"))
				}
			case "outlineLvl":
				if inStyle && level == 0 {
					level = outlineLevel(attr(t, "val"))
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				if inStyle && id != "" && level > 0 {
					levels[id] = level
				}
				inStyle = false
			}
		}
	}
}

// styleNameLevel 内置样式名：title -> 1，heading N -> N
func styleNameLevel(name string) int {
	s := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	switch s {
	case "title", "heading1":
		return 1
	case "heading2", "heading3", "heading4", "heading5", "heading6":
		return int(s[len(s)-1] - '0')
	}
	return 0
}

// outlineLevel w:outlineLvl 从 0 开始，9 表示正文
func outlineLevel(val string) int {
	if len(val) != 1 || val[0] < '0' || val[0] > '5' {
		return 0
	}
	return int(val[0]-'0') + 1
}

type docxRun struct {
	bold   bool
	italic bool
	buf    strings.Builder
}

type docxParagraph struct {
	style   string
	outline int
	plain strings.Builder
	buf   strings.Builder
}

// renderDocument 流式遍历 WordprocessingML，逐段输出 HTML
func renderDocument(data []byte, levels map[string]int) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out      strings.Builder
		para     *docxParagraph
		run      *docxRun
		inRunPr  bool
		inText   bool
		skipping int
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("%w: %v", ErrNotDocx, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipping > 0 || t.Name.Local == "txbxContent" {
				skipping++
				continue
			}
			switch t.Name.Local {
			case "p":
				para = &docxParagraph{}
			case "pStyle":
				if para != nil && run == nil {
					para.style = attr(t, "val")
				}
			case "outlineLvl":
				if para != nil && run == nil {
					para.outline = outlineLevel(attr(t, "val"))
				}
			case "r":
				if para != nil {
					run = &docxRun{}
				}
			case "rPr":
				inRunPr = run != nil
			case "b":
				if inRunPr {
					run.bold = toggleOn(t)
				}
			case "i":
				if inRunPr {
					run.italic = toggleOn(t)
				}
			case "t":
				inText = run != nil
			case "tab":
				if run != nil && !inRunPr {
					run.buf.WriteByte(' ')
					para.plain.WriteByte(' ')
				}
			case "br", "cr":
				if run != nil {
					run.buf.WriteString("<br>")
				}
			}

		case xml.CharData:
			if skipping == 0 && inText {
				run.buf.WriteString(html.EscapeString(string(t)))
				para.plain.Write(t)
			}

		case xml.EndElement:
			if skipping > 0 {
				skipping--
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "rPr":
				inRunPr = false
			case "r":
				if run != nil && para != nil {
					para.buf.WriteString(wrapRun(run))
				}
				run = nil
			case "p":
				if para != nil {
					writeParagraph(&out, para, levels)
				}
				para = nil
			}
		}
	}

	return out.String(), nil
}

func wrapRun(r *docxRun) string {
	s := r.buf.String()
	if strings.TrimSpace(s) == "" {
		return s
	}
	if r.italic {
		s = "<em>" + s + "</em>"
	}
	if r.bold {
		s = "<strong>" + s + "</strong>"
	}
	return s
}

func writeParagraph(out *strings.Builder, p *docxParagraph, levels map[string]int) {
	if strings.TrimSpace(p.plain.String()) == "" {
		return
	}
	tag := paragraphTag(p, levels)
	out.WriteString("<" + tag + ">")
	out.WriteString(strings.TrimSpace(p.buf.String()))
	out.WriteString("</" + tag + ">")
}

// paragraphTag 段落自身的大纲级别优先，其次是样式表中的标题级别，最后按内置样式 ID 识别
func paragraphTag(p *docxParagraph, levels map[string]int) string {
	level := p.outline
	if level == 0 {
		level = levels[p.style]
	}
	if level == 0 {
		level = styleNameLevel(p.style)
	}
	if level == 0 {
		return "p"
	}
	return "h" + strconv.Itoa(level)
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn <w:b/> 表示开启，<w:b w:val="0"/> 表示关闭
func toggleOn(se xml.StartElement) bool {
	switch strings.ToLower(attr(se, "val")) {
	case "0", "false", "off":
		return false
	}
	return true
}
