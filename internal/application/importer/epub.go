package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// ParseEpub 按 spine 顺序提取 EPUB 章节
func (i *Importer) ParseEpub(ctx context.Context, r io.ReaderAt, size int64) ([]ParsedChapter, error) {
	ctx, span := tracer.Start(ctx, "importer.ParseEpub")
	defer span.End()

	arc, err := openArchive(r, size, i.opts.MaxMemberBytes)
	if err != nil {
		return nil, formatErrorf(FormatEpub, err, "file is not a valid EPUB (zip) archive")
	}

	containerData, err := arc.read(containerPath)
	if err != nil {
		if errors.Is(err, errMemberNotFound) {
			return nil, formatErrorf(FormatEpub, nil, "container descriptor %s is missing", containerPath)
		}
		return nil, formatErrorf(FormatEpub, err, "container descriptor could not be read")
	}

	opfPath, err := parseContainer(containerData)
	if err != nil {
		return nil, formatErrorf(FormatEpub, err, "container descriptor is not valid XML")
	}
	if opfPath == "" {
		return nil, formatErrorf(FormatEpub, nil, "container descriptor does not reference a package document")
	}

	opfData, err := arc.read(opfPath)
	if err != nil {
		if errors.Is(err, errMemberNotFound) || errors.Is(err, errUnsafePath) {
			return nil, formatErrorf(FormatEpub, nil, "package document %s is missing", opfPath)
		}
		return nil, formatErrorf(FormatEpub, err, "package document could not be read")
	}

	pkg, err := parsePackage(opfData)
	if err != nil {
		return nil, formatErrorf(FormatEpub, err, "package document is not valid XML")
	}
	if !pkg.hasSpine {
		return nil, formatErrorf(FormatEpub, nil, "package document has no spine (reading order)")
	}
	if len(pkg.spine) == 0 {
		return nil, formatErrorf(FormatEpub, nil, "package spine lists no content documents")
	}
	span.SetAttributes(attribute.Int("epub.spine_len", len(pkg.spine)))

	opfDir := path.Dir(opfPath)
	results := make([]*ParsedChapter, len(pkg.spine))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.EpubWorkers)

	for idx, idref := range pkg.spine {
		href, ok := pkg.manifest[idref]
		if !ok {
			logger.Debug(ctx, "spine item not in manifest, skipped", "idref", idref)
			continue
		}
		member := resolvePath(opfDir, href)
		if member == "" {
			logger.Debug(ctx, "spine item path unresolvable, skipped", "idref", idref, "href", href)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := arc.read(member)
			if err != nil {
				if errors.Is(err, errMemberNotFound) {
					logger.Debug(gctx, "spine item missing from archive, skipped", "path", member)
					return nil
				}
				return formatErrorf(FormatEpub, err, "content document %s could not be read", member)
			}

			chapter, err := extractEpubChapter(data, member)
			if err != nil {
				logger.Debug(gctx, "spine item unparsable, skipped", "path", member, "error", err.Error())
				return nil
			}
			results[idx] = chapter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	chapters := make([]ParsedChapter, 0, len(results))
	for _, ch := range results {
		if ch != nil {
			chapters = append(chapters, *ch)
		}
	}
	if len(chapters) == 0 {
		return nil, &EmptyResultError{Format: FormatEpub}
	}
	return chapters, nil
}

// selfClosingRawTag XHTML 中自闭合的 <title/>、<script/> 等在 HTML 解析下会吞掉后续内容
var selfClosingRawTag = regexp.MustCompile(`(?is)<(script|style|title|textarea)\b([^>]*)/>`)

// extractEpubChapter 提取正文 HTML 与标题；非正文（去标记后不超过 minContentRunes）返回 nil
func extractEpubChapter(data []byte, member string) (*ParsedChapter, error) {
	data = selfClosingRawTag.ReplaceAll(toUTF8(data), []byte(`<$1$2></$1>`))
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	doc.Find("script, style").Remove()

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, nil
	}
	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		stripEventAttrs(s)
	})

	if utf8.RuneCountInString(collapseSpace(body.Text())) <= minContentRunes {
		return nil, nil
	}

	title := collapseSpace(doc.Find("head title").First().Text())
	if title == "" {
		title = collapseSpace(body.Find("h1, h2").First().Text())
	}
	if title == "" {
		title = titleFromFilename(member)
	}

	markup, err := body.Html()
	if err != nil {
		return nil, err
	}

	return &ParsedChapter{
		Title: title,
		HTML:  strings.TrimSpace(markup),
	}, nil
}

func stripEventAttrs(s *goquery.Selection) {
	for _, n := range s.Nodes {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
}

// titleFromFilename chapter_01-intro.xhtml -> "chapter 01 intro"
func titleFromFilename(member string) string {
	base := path.Base(member)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	if title := collapseSpace(base); title != "" {
		return title
	}
	return "Untitled"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
