// Package messaging 提供消息队列实现
package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	StoryID   string            `json:"story_id"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType, storyID string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		StoryID:   storyID,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷，载荷损坏重投也无法恢复，返回 ErrPermanent
func (m *Message) UnmarshalPayload(v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return Permanent(fmt.Errorf("failed to unmarshal payload of message %s: %w", m.ID, err))
	}
	return nil
}

// Stream 流定义
type Stream string

const (
	StreamChapterImport Stream = "stream:chapter:import"
)

// DLQStream 获取对应的死信队列流名称
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组定义
type ConsumerGroup string

const (
	ConsumerGroupImportWorker ConsumerGroup = "cg-import-worker"
)

// BackoffConfig 重试退避配置
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 默认退避配置
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// Delay 第 attempt 次重投前需要等待的空闲时长
func (c BackoffConfig) Delay(attempt int) time.Duration {
	delay := c.Initial
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * c.Multiplier)
		if delay >= c.Max {
			return c.Max
		}
	}
	if delay > c.Max {
		return c.Max
	}
	return delay
}

// 消息类型
const (
	TypeChaptersImported = "chapters_imported"
)

// ChaptersImportedMessage 章节导入完成消息
type ChaptersImportedMessage struct {
	StoryID    string   `json:"story_id"`
	AuthorID   string   `json:"author_id"`
	Format     string   `json:"format"`
	ChapterIDs []string `json:"chapter_ids"`
	RequestID  string   `json:"request_id,omitempty"`
}
