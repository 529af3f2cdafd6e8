// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

// SubscriptionRepository 订阅仓储实现
type SubscriptionRepository struct {
	client *Client
}

// NewSubscriptionRepository 创建订阅仓储
func NewSubscriptionRepository(client *Client) *SubscriptionRepository {
	return &SubscriptionRepository{client: client}
}

// ListActive 获取读者对某作者的全部有效订阅
func (r *SubscriptionRepository) ListActive(ctx context.Context, subscriberID, authorID string) ([]*entity.Subscription, error) {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionRepository.ListActive")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var subs []*entity.Subscription
	err := db.Where("subscriber_id = ? AND author_id = ? AND status = ?",
		subscriberID, authorID, entity.SubscriptionStatusActive).
		Find(&subs).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	return subs, nil
}
