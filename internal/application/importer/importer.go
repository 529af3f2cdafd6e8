// Package importer 将作者上传的稿件（EPUB、DOCX、粘贴文本）规整为有序章节列表
package importer

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/metrics"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// Format 稿件格式
type Format string

const (
	FormatEpub Format = "epub"
	FormatDocx Format = "docx"
	FormatText Format = "text"
)

// minContentRunes 正文去除标记后不超过该长度视为非正文（封面、目录、分隔页）
const minContentRunes = 20

// ChapterMarker 作者手动插入的章节分隔符
const ChapterMarker = "---CHAPTER---"

// ParsedChapter 解析得到的章节，Title 永不为空
type ParsedChapter struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ParseFormat 解析格式名称
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatEpub:
		return FormatEpub, nil
	case FormatDocx:
		return FormatDocx, nil
	case FormatText, "txt", "paste":
		return FormatText, nil
	}
	return "", ErrUnsupportedFormat
}

// DetectFormat 根据文件扩展名判断格式
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".epub":
		return FormatEpub, nil
	case ".docx":
		return FormatDocx, nil
	case ".txt", ".text", ".md":
		return FormatText, nil
	}
	return "", ErrUnsupportedFormat
}

// Options 导入选项
type Options struct {
	// MaxUploadBytes 单次导入的原始数据上限
	MaxUploadBytes int64
	// MaxMemberBytes 压缩包内单个文件解压后的上限
	MaxMemberBytes int64
	// EpubWorkers EPUB 章节并发提取数
	EpubWorkers int
}

// DefaultOptions 默认导入选项
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes: 20 << 20,
		MaxMemberBytes: 50 << 20,
		EpubWorkers:    4,
	}
}

// Importer 稿件导入器
type Importer struct {
	docx DocxConverter
	opts Options
}

// New 创建导入器，零值选项使用默认值
func New(docx DocxConverter, opts Options) *Importer {
	def := DefaultOptions()
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = def.MaxUploadBytes
	}
	if opts.MaxMemberBytes <= 0 {
		opts.MaxMemberBytes = def.MaxMemberBytes
	}
	if opts.EpubWorkers <= 0 {
		opts.EpubWorkers = def.EpubWorkers
	}
	return &Importer{docx: docx, opts: opts}
}

// MaxUploadBytes 返回上传大小上限
func (i *Importer) MaxUploadBytes() int64 {
	return i.opts.MaxUploadBytes
}

// Parse 按格式解析稿件
func (i *Importer) Parse(ctx context.Context, format Format, data []byte) ([]ParsedChapter, error) {
	ctx, span := tracer.Start(ctx, "importer.Parse")
	defer span.End()
	span.SetAttributes(
		attribute.String("import.format", string(format)),
		attribute.Int("import.size_bytes", len(data)),
	)

	start := time.Now()
	chapters, err := i.parse(ctx, format, data)
	metrics.ImportDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	metrics.ImportTotal.WithLabelValues(string(format), importStatus(err)).Inc()

	if err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "manuscript import rejected",
			"format", format,
			"size_bytes", len(data),
			"error", err.Error(),
		)
		return nil, err
	}

	metrics.ImportChapters.WithLabelValues(string(format)).Observe(float64(len(chapters)))
	span.SetAttributes(attribute.Int("import.chapters", len(chapters)))
	logger.Info(ctx, "manuscript parsed",
		"format", format,
		"size_bytes", len(data),
		"chapters", len(chapters),
	)
	return chapters, nil
}

func (i *Importer) parse(ctx context.Context, format Format, data []byte) ([]ParsedChapter, error) {
	if int64(len(data)) > i.opts.MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}

	switch format {
	case FormatEpub:
		return i.ParseEpub(ctx, bytes.NewReader(data), int64(len(data)))
	case FormatDocx:
		return i.ParseDocx(ctx, bytes.NewReader(data), int64(len(data)))
	case FormatText:
		return i.ParsePastedText(string(data))
	default:
		return nil, ErrUnsupportedFormat
	}
}

func importStatus(err error) string {
	var formatErr *FormatError
	var emptyErr *EmptyResultError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &formatErr):
		return "format_error"
	case errors.As(err, &emptyErr):
		return "empty"
	case errors.Is(err, ErrUploadTooLarge):
		return "too_large"
	case errors.Is(err, ErrConverterUnavailable):
		return "converter_unavailable"
	default:
		return "error"
	}
}
