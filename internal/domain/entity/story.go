package entity

import (
	"time"

	"github.com/lib/pq"
)

// StoryStatus 故事状态
type StoryStatus string

const (
	StoryStatusOngoing   StoryStatus = "ongoing"
	StoryStatusCompleted StoryStatus = "completed"
	StoryStatusHiatus    StoryStatus = "hiatus"
)

// Story 故事实体
type Story struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuthorID  string         `json:"author_id" gorm:"type:uuid;index;not null"`
	Title     string         `json:"title" gorm:"type:varchar(255);not null"`
	Synopsis  string         `json:"synopsis,omitempty" gorm:"type:text"`
	Tags      pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	Status    StoryStatus    `json:"status" gorm:"type:varchar(50);default:'ongoing'"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Story) TableName() string {
	return "stories"
}

// IsAuthor 判断用户是否为故事作者
func (s *Story) IsAuthor(userID string) bool {
	return userID != "" && s.AuthorID == userID
}
