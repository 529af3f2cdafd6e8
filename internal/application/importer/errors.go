package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrUploadTooLarge 上传内容超过配置的大小上限
	ErrUploadTooLarge = errors.New("upload exceeds the maximum allowed size")
	// ErrUnsupportedFormat 无法识别的稿件格式
	ErrUnsupportedFormat = errors.New("unsupported manuscript format")
	// ErrNoConverter 未配置 DOCX 转换器
	ErrNoConverter = errors.New("docx converter is not configured")
	// ErrConverterUnavailable 转换服务暂时不可用，可稍后重试
	ErrConverterUnavailable = errors.New("docx converter is unavailable")
)

// FormatError 稿件容器或包结构损坏、无法识别。
// 对单次导入是致命错误，不会自动重试。
type FormatError struct {
	Format Format
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s import failed: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s import failed: %s", e.Format, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Hint 面向作者的修复建议
func (e *FormatError) Hint() string {
	switch e.Format {
	case FormatEpub:
		return "The EPUB file appears to be damaged. Re-export it as EPUB 2 or EPUB 3 from your writing tool (for example Calibre, Vellum or Scrivener) and upload it again."
	case FormatDocx:
		return "The document could not be read as DOCX. Open it in Word, LibreOffice or Google Docs, choose \"Save as\" Word Document (.docx), and upload it again."
	default:
		return "The file could not be read. Check the export settings and try again."
	}
}

// EmptyResultError 解析未出现结构错误，但没有得到任何可用章节
type EmptyResultError struct {
	Format Format
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no chapters found in %s input", e.Format)
}

// Hint 面向作者的修复建议
func (e *EmptyResultError) Hint() string {
	return "No chapter text was found. The file may be empty or contain only front matter such as a cover or table of contents."
}

func formatErrorf(format Format, err error, reason string, args ...any) *FormatError {
	return &FormatError{
		Format: format,
		Reason: fmt.Sprintf(reason, args...),
		Err:    err,
	}
}
