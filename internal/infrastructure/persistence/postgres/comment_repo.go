// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

// CommentRepository 评论仓储实现
type CommentRepository struct {
	client *Client
}

// NewCommentRepository 创建评论仓储
func NewCommentRepository(client *Client) *CommentRepository {
	return &CommentRepository{client: client}
}

// CountTopLevel 统计章节顶层评论数
func (r *CommentRepository) CountTopLevel(ctx context.Context, chapterID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CommentRepository.CountTopLevel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	err := db.Model(&entity.Comment{}).
		Where("chapter_id = ? AND parent_id IS NULL", chapterID).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}
