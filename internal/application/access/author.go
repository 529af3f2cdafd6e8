package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/repository"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/persistence/redis"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
)

// AuthorResolver 根据故事 ID 解析作者 ID
type AuthorResolver interface {
	AuthorOf(ctx context.Context, storyID string) (string, error)
}

// RepositoryAuthorResolver 直接查询故事仓储
type RepositoryAuthorResolver struct {
	stories repository.StoryRepository
}

// NewRepositoryAuthorResolver 创建基于仓储的作者解析器
func NewRepositoryAuthorResolver(stories repository.StoryRepository) *RepositoryAuthorResolver {
	return &RepositoryAuthorResolver{stories: stories}
}

// AuthorOf 实现 AuthorResolver
func (r *RepositoryAuthorResolver) AuthorOf(ctx context.Context, storyID string) (string, error) {
	story, err := r.stories.GetByID(ctx, storyID)
	if err != nil {
		return "", err
	}
	if story == nil {
		return "", ErrStoryNotFound
	}
	return story.AuthorID, nil
}

// KVCache Read-Through 缓存
type KVCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// CachedAuthorResolver 带缓存的作者解析器，缓存不可用时回源
type CachedAuthorResolver struct {
	cache KVCache
	next  AuthorResolver
	ttl   time.Duration
}

// NewCachedAuthorResolver 创建带缓存的作者解析器
func NewCachedAuthorResolver(cache KVCache, next AuthorResolver, ttl time.Duration) *CachedAuthorResolver {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedAuthorResolver{cache: cache, next: next, ttl: ttl}
}

// AuthorOf 实现 AuthorResolver
func (r *CachedAuthorResolver) AuthorOf(ctx context.Context, storyID string) (string, error) {
	data, err := r.cache.GetOrLoadSafe(ctx, redis.BuildStoryAuthorKey(storyID), r.ttl, func() (interface{}, error) {
		return r.next.AuthorOf(ctx, storyID)
	})
	if err == nil {
		var authorID string
		if err := json.Unmarshal(data, &authorID); err == nil && authorID != "" {
			return authorID, nil
		}
	}
	if errors.Is(err, ErrStoryNotFound) {
		return "", err
	}
	if err != nil {
		logger.Warn(ctx, "author cache unavailable, falling back to repository",
			"story_id", storyID,
			"error", err.Error())
	}

	authorID, err := r.next.AuthorOf(ctx, storyID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve story author: %w", err)
	}
	return authorID, nil
}
