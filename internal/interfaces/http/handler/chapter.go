package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/repository"
	"github.com/onedollarbanana/FictionForge-sub002/internal/interfaces/http/dto"
	apperrors "github.com/onedollarbanana/FictionForge-sub002/pkg/errors"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
)

// ChapterHandler 章节阅读处理器
type ChapterHandler struct {
	gate        *access.Gate
	authors     access.AuthorResolver
	chapterRepo repository.ChapterRepository
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(
	gate *access.Gate,
	authors access.AuthorResolver,
	chapterRepo repository.ChapterRepository,
) *ChapterHandler {
	return &ChapterHandler{
		gate:        gate,
		authors:     authors,
		chapterRepo: chapterRepo,
	}
}

// GetChapter 获取章节详情
// @Summary 获取章节详情
// @Description 无权访问时返回元数据与词数、评论数，不返回正文
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	view, err := h.gate.ReadChapter(ctx, chapterID, dto.RequesterID(c))
	if err != nil {
		h.writeLookupError(c, "failed to get chapter", err)
		return
	}

	dto.Success(c, dto.ToChapterResponse(view))
}

// GetChapterAccess 获取章节访问判定
// @Summary 获取章节访问判定
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.AccessResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/access [get]
func (h *ChapterHandler) GetChapterAccess(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	decision, err := h.gate.ResolveChapterAccess(ctx, chapterID, dto.RequesterID(c))
	if err != nil {
		h.writeLookupError(c, "failed to resolve chapter access", err)
		return
	}

	dto.Success(c, dto.ToAccessResponse(decision))
}

// ListStoryChapters 获取故事章节目录
// @Summary 获取故事章节目录
// @Description 作者可见草稿，其他读者只看到已发布章节
// @Tags Chapters
// @Produce json
// @Param sid path string true "故事 ID"
// @Success 200 {object} dto.Response[dto.ChapterListResponse]
// @Router /v1/stories/{sid}/chapters [get]
func (h *ChapterHandler) ListStoryChapters(c *gin.Context) {
	ctx := c.Request.Context()
	storyID := dto.BindStoryID(c)

	chapters, err := h.chapterRepo.ListByStory(ctx, storyID)
	if err != nil {
		logger.Error(ctx, "failed to list chapters", err, "story_id", storyID)
		dto.InternalError(c, "failed to list chapters")
		return
	}

	if !h.isAuthor(ctx, storyID, dto.RequesterID(c)) {
		published := chapters[:0]
		for _, ch := range chapters {
			if ch.IsPublished() {
				published = append(published, ch)
			}
		}
		chapters = published
	}

	dto.Success(c, dto.ToChapterListResponse(chapters))
}

func (h *ChapterHandler) isAuthor(ctx context.Context, storyID, requesterID string) bool {
	if requesterID == "" {
		return false
	}
	authorID, err := h.authors.AuthorOf(ctx, storyID)
	if err != nil {
		return false
	}
	return authorID == requesterID
}

func (h *ChapterHandler) writeLookupError(c *gin.Context, msg string, err error) {
	if errors.Is(err, apperrors.ErrChapterNotFound) {
		dto.AppError(c, apperrors.ErrChapterNotFound)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.InternalError(c, msg)
}
