package entity

import "time"

// SubscriptionStatus 订阅状态
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription 读者对作者的付费订阅
// 订阅状态由支付服务维护，本服务只读
type Subscription struct {
	ID               string             `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubscriberID     string             `json:"subscriber_id" gorm:"type:uuid;index:idx_sub_pair;not null"`
	AuthorID         string             `json:"author_id" gorm:"type:uuid;index:idx_sub_pair;not null"`
	Tier             Tier               `json:"tier" gorm:"type:varchar(32);not null"`
	Status           SubscriptionStatus `json:"status" gorm:"type:varchar(32);not null"`
	CurrentPeriodEnd *time.Time         `json:"current_period_end,omitempty"`
	CreatedAt        time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "author_subscriptions"
}

// IsActive 订阅是否有效
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
