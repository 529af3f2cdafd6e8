// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 根据 ID 获取章节，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// ListByStory 获取故事章节列表（按序号排序）
	ListByStory(ctx context.Context, storyID string) ([]*entity.Chapter, error)

	// GetNextSeqNum 获取下一个序号
	GetNextSeqNum(ctx context.Context, storyID string) (int, error)
}
