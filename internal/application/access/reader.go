package access

import (
	"context"
	"fmt"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
	apperrors "github.com/onedollarbanana/FictionForge-sub002/pkg/errors"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// ChapterView 读者可见的章节，无权访问时正文为空
type ChapterView struct {
	Chapter  *entity.Chapter
	Decision *Decision
}

// ReadChapter 加载章节并按访问判定裁剪正文。
// 草稿只对作者可见，其他人视为不存在。
func (g *Gate) ReadChapter(ctx context.Context, chapterID, requesterID string) (*ChapterView, error) {
	ctx, span := tracer.Start(ctx, "access.Gate.ReadChapter")
	defer span.End()

	chapter, err := g.loadVisible(ctx, chapterID, requesterID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	decision := g.Resolve(ctx, chapter, requesterID)

	view := *chapter
	if !decision.HasAccess {
		view.Content = ""
	}
	return &ChapterView{Chapter: &view, Decision: decision}, nil
}

// loadVisible 加载请求者可见的章节：不存在或是他人的草稿都返回 ErrChapterNotFound
func (g *Gate) loadVisible(ctx context.Context, chapterID, requesterID string) (*entity.Chapter, error) {
	chapter, err := g.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound
	}
	if !chapter.IsPublished() && !g.isAuthor(ctx, chapter, requesterID) {
		return nil, apperrors.ErrChapterNotFound
	}
	return chapter, nil
}

func (g *Gate) isAuthor(ctx context.Context, chapter *entity.Chapter, requesterID string) bool {
	if requesterID == "" {
		return false
	}
	authorID, err := g.authors.AuthorOf(ctx, chapter.StoryID)
	if err != nil {
		logger.Warn(ctx, "failed to resolve author for draft chapter",
			"chapter_id", chapter.ID,
			"error", err.Error())
		return false
	}
	return authorID == requesterID
}
