package dto

import (
	"time"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/entity"
)

// ChapterResponse 章节详情响应，无权访问时不含正文
type ChapterResponse struct {
	ID           string     `json:"id"`
	StoryID      string     `json:"story_id"`
	SeqNum       int        `json:"seq_num"`
	Title        string     `json:"title"`
	Content      string     `json:"content,omitempty"`
	RequiredTier string     `json:"required_tier,omitempty"`
	Status       string     `json:"status"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	HasAccess    bool       `json:"has_access"`
	WordCount    int        `json:"word_count"`
	CommentCount int64      `json:"comment_count"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

// ChapterSummary 章节列表项
type ChapterSummary struct {
	ID           string     `json:"id"`
	SeqNum       int        `json:"seq_num"`
	Title        string     `json:"title"`
	RequiredTier string     `json:"required_tier,omitempty"`
	Status       string     `json:"status"`
	WordCount    int        `json:"word_count"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// ChapterListResponse 章节列表响应
type ChapterListResponse struct {
	Chapters []*ChapterSummary `json:"chapters"`
}

// AccessResponse 访问判定响应
type AccessResponse struct {
	HasAccess    bool  `json:"has_access"`
	WordCount    int   `json:"word_count"`
	CommentCount int64 `json:"comment_count"`
}

// ToChapterResponse 转换为章节响应
func ToChapterResponse(view *access.ChapterView) *ChapterResponse {
	if view == nil || view.Chapter == nil {
		return nil
	}
	ch := view.Chapter
	resp := &ChapterResponse{
		ID:          ch.ID,
		StoryID:     ch.StoryID,
		SeqNum:      ch.SeqNum,
		Title:       ch.Title,
		Content:     ch.Content,
		Status:      string(ch.Status),
		PublishedAt: ch.PublishedAt,
		CreatedAt:   ch.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   ch.UpdatedAt.Format(time.RFC3339),
	}
	if ch.IsGated() {
		resp.RequiredTier = string(*ch.RequiredTier)
	}
	if d := view.Decision; d != nil {
		resp.HasAccess = d.HasAccess
		resp.WordCount = d.WordCount
		resp.CommentCount = d.CommentCount
	}
	return resp
}

// ToAccessResponse 转换为访问判定响应
func ToAccessResponse(d *access.Decision) *AccessResponse {
	return &AccessResponse{
		HasAccess:    d.HasAccess,
		WordCount:    d.WordCount,
		CommentCount: d.CommentCount,
	}
}

// ToChapterListResponse 转换为章节列表响应
func ToChapterListResponse(chapters []*entity.Chapter) *ChapterListResponse {
	items := make([]*ChapterSummary, 0, len(chapters))
	for _, ch := range chapters {
		item := &ChapterSummary{
			ID:          ch.ID,
			SeqNum:      ch.SeqNum,
			Title:       ch.Title,
			Status:      string(ch.Status),
			WordCount:   ch.WordCount,
			PublishedAt: ch.PublishedAt,
		}
		if ch.IsGated() {
			item.RequiredTier = string(*ch.RequiredTier)
		}
		items = append(items, item)
	}
	return &ChapterListResponse{Chapters: items}
}
