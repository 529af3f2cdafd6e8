package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/repository"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/messaging"
	"github.com/onedollarbanana/FictionForge-sub002/internal/interfaces/http/dto"
	apperrors "github.com/onedollarbanana/FictionForge-sub002/pkg/errors"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
)

// multipartOverhead 表单字段与分隔符预留空间
const multipartOverhead = 1 << 20

// maxTitleRunes 与 chapters.title 列长度一致
const maxTitleRunes = 255

// ImportEventPublisher 导入事件发布
type ImportEventPublisher interface {
	PublishChaptersImported(ctx context.Context, evt *messaging.ChaptersImportedMessage) (string, error)
}

// ImportHandler 稿件导入处理器
type ImportHandler struct {
	importer    *importer.Importer
	authors     access.AuthorResolver
	chapterRepo repository.ChapterRepository
	txMgr       repository.Transactor
	events      ImportEventPublisher
}

// NewImportHandler 创建导入处理器
func NewImportHandler(
	imp *importer.Importer,
	authors access.AuthorResolver,
	chapterRepo repository.ChapterRepository,
	txMgr repository.Transactor,
	events ImportEventPublisher,
) *ImportHandler {
	return &ImportHandler{
		importer:    imp,
		authors:     authors,
		chapterRepo: chapterRepo,
		txMgr:       txMgr,
		events:      events,
	}
}

// ImportChapters 解析上传稿件，commit=true 时作为草稿写入故事
// @Summary 导入章节
// @Description 上传 EPUB/DOCX（file 字段）或粘贴文本（text 字段）；默认仅预览
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param sid path string true "故事 ID"
// @Param file formData file false "稿件文件"
// @Param text formData string false "粘贴文本"
// @Param format formData string false "epub | docx | text"
// @Param commit formData bool false "是否保存为草稿"
// @Success 200 {object} dto.Response[dto.ImportResponse]
// @Success 201 {object} dto.Response[dto.ImportResponse]
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/stories/{sid}/imports [post]
func (h *ImportHandler) ImportChapters(c *gin.Context) {
	ctx := c.Request.Context()
	storyID := dto.BindStoryID(c)
	ctx = logger.WithContext(ctx, logger.StoryIDKey, storyID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.importer.MaxUploadBytes()+multipartOverhead)

	var req dto.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			dto.AppError(c, apperrors.ErrUploadTooLarge)
			return
		}
		dto.BadRequest(c, "invalid import request: "+err.Error())
		return
	}

	var authorID string
	if req.Commit {
		var appErr *apperrors.AppError
		authorID, appErr = h.authorize(ctx, storyID, dto.RequesterID(c))
		if appErr != nil {
			dto.AppError(c, appErr)
			return
		}
	}

	format, data, err := h.readInput(c, &req)
	if err != nil {
		h.writeImportError(c, err)
		return
	}

	chapters, err := h.importer.Parse(ctx, format, data)
	if err != nil {
		h.writeImportError(c, err)
		return
	}

	resp := &dto.ImportResponse{
		Format:   string(format),
		Chapters: dto.ToImportedChapters(chapters, access.CountWords),
	}
	if !req.Commit {
		dto.Success(c, resp)
		return
	}

	created, err := h.commit(ctx, storyID, chapters)
	if err != nil {
		logger.Error(ctx, "failed to save imported chapters", err)
		dto.InternalError(c, "failed to save imported chapters")
		return
	}

	ids := make([]string, len(created))
	for i, ch := range created {
		ids[i] = ch.ID
		resp.Chapters[i].ID = ch.ID
	}
	resp.Committed = true

	h.publish(ctx, &messaging.ChaptersImportedMessage{
		StoryID:    storyID,
		AuthorID:   authorID,
		Format:     string(format),
		ChapterIDs: ids,
		RequestID:  c.GetString("request_id"),
	})

	dto.Created(c, resp)
}

// authorize 仅故事作者可以保存导入结果
func (h *ImportHandler) authorize(ctx context.Context, storyID, requesterID string) (string, *apperrors.AppError) {
	if requesterID == "" {
		return "", apperrors.ErrTokenMissing
	}
	authorID, err := h.authors.AuthorOf(ctx, storyID)
	if err != nil {
		if errors.Is(err, access.ErrStoryNotFound) {
			return "", apperrors.ErrStoryNotFound
		}
		logger.Error(ctx, "failed to resolve story author", err)
		return "", apperrors.ErrInternalError.WithError(err)
	}
	if authorID != requesterID {
		return "", apperrors.ErrAccessDenied.WithDetail("only the story author can import chapters")
	}
	return authorID, nil
}

// readInput 优先读取上传文件，其次读取粘贴文本
func (h *ImportHandler) readInput(c *gin.Context, req *dto.ImportRequest) (importer.Format, []byte, error) {
	file, header, err := c.Request.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		if req.Text == "" {
			return "", nil, errMissingInput
		}
		return importer.FormatText, []byte(req.Text), nil
	}
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	limit := h.importer.MaxUploadBytes()
	if header.Size > limit {
		return "", nil, importer.ErrUploadTooLarge
	}

	var format importer.Format
	if req.Format != "" {
		format, err = importer.ParseFormat(req.Format)
	} else {
		format, err = importer.DetectFormat(header.Filename)
	}
	if err != nil {
		return "", nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", nil, err
	}
	return format, data, nil
}

// commit 在单个事务内追加章节，序号接在故事现有章节之后
func (h *ImportHandler) commit(ctx context.Context, storyID string, chapters []importer.ParsedChapter) ([]*entity.Chapter, error) {
	var created []*entity.Chapter
	err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		created = created[:0]
		next, err := h.chapterRepo.GetNextSeqNum(txCtx, storyID)
		if err != nil {
			return err
		}
		for i, pc := range chapters {
			ch := entity.NewChapter(storyID, next+i, truncateRunes(pc.Title, maxTitleRunes))
			ch.Content = pc.HTML
			ch.WordCount = access.CountWords(pc.HTML)
			if err := h.chapterRepo.Create(txCtx, ch); err != nil {
				return err
			}
			created = append(created, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// publish 事件发布失败不影响导入结果
func (h *ImportHandler) publish(ctx context.Context, evt *messaging.ChaptersImportedMessage) {
	if h.events == nil {
		return
	}
	if _, err := h.events.PublishChaptersImported(ctx, evt); err != nil {
		logger.Warn(ctx, "failed to publish chapters imported event",
			"chapters", len(evt.ChapterIDs),
			"error", err.Error())
	}
}

var errMissingInput = errors.New("either a file or text is required")

func (h *ImportHandler) writeImportError(c *gin.Context, err error) {
	if errors.Is(err, errMissingInput) {
		dto.BadRequest(c, err.Error())
		return
	}
	appErr, suggestions := dto.FromImportError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "manuscript import failed", err)
	}
	dto.AppError(c, appErr, suggestions...)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
