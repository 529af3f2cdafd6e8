package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/repository"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// ImportWarmer 消费章节导入事件：核对新章节并预热故事作者缓存，
// 读者随后访问新章节时门禁判断无需回源
type ImportWarmer struct {
	chapters repository.ChapterRepository
	authors  AuthorResolver
}

// WarmupResult 单个导入事件的处理结果
type WarmupResult struct {
	Chapters int
	Words    int
	// Missing 已不存在或不属于该故事的章节
	Missing []string
}

// NewImportWarmer 创建导入事件处理器
func NewImportWarmer(chapters repository.ChapterRepository, authors AuthorResolver) *ImportWarmer {
	return &ImportWarmer{chapters: chapters, authors: authors}
}

// HandleImported 处理一次导入。返回错误表示存储暂不可用，调用方应稍后重试
func (w *ImportWarmer) HandleImported(ctx context.Context, storyID, authorID string, chapterIDs []string) (*WarmupResult, error) {
	ctx, span := tracer.Start(ctx, "access.ImportWarmer.HandleImported")
	defer span.End()

	result := &WarmupResult{}

	resolved, err := w.authors.AuthorOf(ctx, storyID)
	if errors.Is(err, ErrStoryNotFound) {
		logger.Warn(ctx, "imported story no longer exists", "story_id", storyID)
		result.Missing = append(result.Missing, chapterIDs...)
		return result, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to warm story author: %w", err)
	}
	if authorID != "" && resolved != authorID {
		logger.Warn(ctx, "story author changed since import",
			"story_id", storyID,
			"import_author_id", authorID,
			"current_author_id", resolved)
	}

	for _, id := range chapterIDs {
		ch, err := w.chapters.GetByID(ctx, id)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to load imported chapter: %w", err)
		}
		if ch == nil || ch.StoryID != storyID {
			result.Missing = append(result.Missing, id)
			continue
		}
		result.Chapters++
		result.Words += CountWords(ch.Content)
	}

	if len(result.Missing) > 0 {
		logger.Warn(ctx, "imported chapters missing", "story_id", storyID, "chapter_ids", result.Missing)
	}
	logger.Info(ctx, "chapter import processed",
		"story_id", storyID,
		"chapters", result.Chapters,
		"words", result.Words)
	return result, nil
}
