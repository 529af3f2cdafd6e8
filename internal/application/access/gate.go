// Package access 提供章节订阅等级访问控制
package access

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/repository"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/metrics"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// Decision 访问判定结果
// WordCount 与 CommentCount 与是否有权访问无关，拒绝时同样返回
type Decision struct {
	HasAccess    bool  `json:"has_access"`
	WordCount    int   `json:"word_count"`
	CommentCount int64 `json:"comment_count"`
}

// Gate 章节访问网关，任何查询失败都按拒绝处理
type Gate struct {
	chapters repository.ChapterRepository
	authors  AuthorResolver
	subs     repository.SubscriptionRepository
	comments repository.CommentRepository
}

// NewGate 创建访问网关
func NewGate(
	chapters repository.ChapterRepository,
	authors AuthorResolver,
	subs repository.SubscriptionRepository,
	comments repository.CommentRepository,
) *Gate {
	return &Gate{
		chapters: chapters,
		authors:  authors,
		subs:     subs,
		comments: comments,
	}
}

// ResolveChapterAccess 按章节 ID 判定访问权限并附带词数与评论数
// requesterID 为空表示匿名读者；草稿对作者以外的人视为不存在
func (g *Gate) ResolveChapterAccess(ctx context.Context, chapterID, requesterID string) (*Decision, error) {
	ctx, span := tracer.Start(ctx, "access.Gate.ResolveChapterAccess")
	defer span.End()

	chapter, err := g.loadVisible(ctx, chapterID, requesterID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	decision := g.Resolve(ctx, chapter, requesterID)
	span.SetAttributes(attribute.Bool("access.granted", decision.HasAccess))
	return decision, nil
}

// Resolve 对已加载的章节进行判定
func (g *Gate) Resolve(ctx context.Context, chapter *entity.Chapter, requesterID string) *Decision {
	ctx = logger.WithContext(ctx, logger.ChapterIDKey, chapter.ID)

	decision := &Decision{
		WordCount:    CountWords(chapter.Content),
		CommentCount: g.countComments(ctx, chapter.ID),
	}

	granted, reason, err := g.decide(ctx, chapter, requesterID)
	if err != nil {
		var lookupErr *AccessLookupError
		if errors.As(err, &lookupErr) {
			metrics.AccessLookupErrorsTotal.WithLabelValues(lookupErr.Op).Inc()
		}
		logger.Error(ctx, "access lookup failed, denying access", err,
			"story_id", chapter.StoryID,
			"requester_id", requesterID)
		granted, reason = false, "lookup_error"
	}

	decision.HasAccess = granted
	metrics.AccessDecisionsTotal.WithLabelValues(reason).Inc()
	logger.Debug(ctx, "chapter access resolved",
		"has_access", granted,
		"reason", reason)
	return decision
}

// decide 判定顺序：无等级要求 → 作者本人 → 匿名 → 有效订阅等级
func (g *Gate) decide(ctx context.Context, chapter *entity.Chapter, requesterID string) (bool, string, error) {
	if !chapter.IsGated() {
		return true, "public", nil
	}

	// 匿名读者不可能是作者，无需查询
	if requesterID == "" {
		return false, "anonymous", nil
	}

	authorID, err := g.authors.AuthorOf(ctx, chapter.StoryID)
	if err != nil {
		return false, "", &AccessLookupError{Op: "author", Err: err}
	}
	if requesterID == authorID {
		return true, "author", nil
	}

	required := *chapter.RequiredTier
	if !required.Valid() {
		logger.Warn(ctx, "chapter has unknown tier requirement", "required_tier", string(required))
		return false, "unknown_tier", nil
	}

	subs, err := g.subs.ListActive(ctx, requesterID, authorID)
	if err != nil {
		return false, "", &AccessLookupError{Op: "subscription", Err: err}
	}

	best := bestTier(subs)
	if best == "" {
		return false, "no_subscription", nil
	}
	if best.Satisfies(required) {
		return true, "tier", nil
	}
	return false, "insufficient_tier", nil
}

func (g *Gate) countComments(ctx context.Context, chapterID string) int64 {
	if g.comments == nil {
		return 0
	}
	n, err := g.comments.CountTopLevel(ctx, chapterID)
	if err != nil {
		metrics.AccessLookupErrorsTotal.WithLabelValues("comments").Inc()
		logger.Warn(ctx, "failed to count comments", "error", err.Error())
		return 0
	}
	return n
}

// bestTier 返回有效订阅中的最高等级
func bestTier(subs []*entity.Subscription) entity.Tier {
	var best entity.Tier
	for _, s := range subs {
		if s == nil || !s.IsActive() || !s.Tier.Valid() {
			continue
		}
		if s.Tier.Rank() > best.Rank() {
			best = s.Tier
		}
	}
	return best
}
