// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

// SubscriptionRepository 订阅仓储接口
type SubscriptionRepository interface {
	// ListActive 获取读者对某作者的全部有效订阅
	ListActive(ctx context.Context, subscriberID, authorID string) ([]*entity.Subscription, error)
}
