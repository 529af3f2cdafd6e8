package dto

import (
	"errors"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
	apperrors "github.com/onedollarbanana/FictionForge-sub002/pkg/errors"
)

// ImportRequest 导入表单字段（文件通过 multipart 的 file 字段上传）
type ImportRequest struct {
	Text   string `form:"text"`
	Format string `form:"format"`
	Commit bool   `form:"commit"`
}

// ImportedChapter 解析出的章节
type ImportedChapter struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
	WordCount int    `json:"word_count"`
}

// ImportResponse 导入结果
type ImportResponse struct {
	Format    string             `json:"format"`
	Committed bool               `json:"committed"`
	Chapters  []*ImportedChapter `json:"chapters"`
}

// FromImportError 将导入错误转换为 AppError，附带给作者的修复建议
func FromImportError(err error) (*apperrors.AppError, []string) {
	var formatErr *importer.FormatError
	var emptyErr *importer.EmptyResultError

	switch {
	case errors.As(err, &formatErr):
		return apperrors.Wrap(err, apperrors.CodeImportFormat, "manuscript could not be read").
			WithDetail(formatErr.Reason), []string{formatErr.Hint()}
	case errors.As(err, &emptyErr):
		return apperrors.Wrap(err, apperrors.CodeImportEmpty, "no chapters found").
			WithDetail(string(emptyErr.Format) + " input produced no usable chapters"), []string{emptyErr.Hint()}
	case errors.Is(err, importer.ErrUploadTooLarge):
		return apperrors.ErrUploadTooLarge.WithError(err), nil
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return apperrors.ErrUnsupportedFormat.WithError(err),
			[]string{"Upload an .epub or .docx file, or paste the text directly."}
	case errors.Is(err, importer.ErrConverterUnavailable):
		return apperrors.Wrap(err, apperrors.CodeConverterError, "document converter unavailable"),
			[]string{"The document service is busy. Try again in a few minutes."}
	case errors.Is(err, importer.ErrNoConverter):
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "docx import is not available"), nil
	default:
		return apperrors.Wrap(err, apperrors.CodeInternalError, "import failed"), nil
	}
}

// ToImportedChapters 转换解析结果
func ToImportedChapters(chapters []importer.ParsedChapter, countWords func(string) int) []*ImportedChapter {
	out := make([]*ImportedChapter, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, &ImportedChapter{
			Title:     ch.Title,
			HTML:      ch.HTML,
			WordCount: countWords(ch.HTML),
		})
	}
	return out
}
