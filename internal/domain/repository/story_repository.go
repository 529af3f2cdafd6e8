// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

// StoryRepository 故事仓储接口
type StoryRepository interface {
	// GetByID 根据 ID 获取故事，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Story, error)
}
