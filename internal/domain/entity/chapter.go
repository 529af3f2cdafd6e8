// Package entity 定义领域实体
package entity

import (
	"time"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft     ChapterStatus = "draft"
	ChapterStatusPublished ChapterStatus = "published"
)

// Chapter 章节实体
// Content 保存富文本 HTML 或编辑器 JSON 文档
type Chapter struct {
	ID           string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoryID      string        `json:"story_id" gorm:"type:uuid;index;not null"`
	SeqNum       int           `json:"seq_num" gorm:"not null"`
	Title        string        `json:"title" gorm:"type:varchar(255);not null"`
	Content      string        `json:"content,omitempty" gorm:"type:text"`
	WordCount    int           `json:"word_count" gorm:"default:0"`
	RequiredTier *Tier         `json:"required_tier,omitempty" gorm:"column:required_tier;type:varchar(32)"`
	Status       ChapterStatus `json:"status" gorm:"type:varchar(50);default:'draft'"`
	PublishedAt  *time.Time    `json:"published_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新的草稿章节
func NewChapter(storyID string, seqNum int, title string) *Chapter {
	now := time.Now()
	return &Chapter{
		StoryID:   storyID,
		SeqNum:    seqNum,
		Title:     title,
		Status:    ChapterStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsGated 章节是否设置了订阅等级要求
func (c *Chapter) IsGated() bool {
	return c.RequiredTier != nil && *c.RequiredTier != ""
}

// IsPublished 章节是否已发布
func (c *Chapter) IsPublished() bool {
	return c.Status == ChapterStatusPublished
}
