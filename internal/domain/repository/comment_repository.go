// Package repository 定义数据访问层接口
package repository

import "context"

// CommentRepository 评论仓储接口
type CommentRepository interface {
	// CountTopLevel 统计章节顶层评论数
	CountTopLevel(ctx context.Context, chapterID string) (int64, error)
}
