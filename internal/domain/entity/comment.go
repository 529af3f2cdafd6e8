package entity

import "time"

// Comment 章节评论
// ParentID 为空表示顶层评论
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChapterID string    `json:"chapter_id" gorm:"type:uuid;index;not null"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null"`
	ParentID  *string   `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}
