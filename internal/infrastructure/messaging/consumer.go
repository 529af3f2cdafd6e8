// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/metrics"
)

// MessageHandler 消息处理函数，返回错误时消息保留在 pending 列表等待重投
type MessageHandler func(ctx context.Context, msg *Message) error

var errNoHandler = errors.New("no handler registered for message type")

// ErrPermanent 标记不可重试的处理失败，消息直接移入死信队列
var ErrPermanent = errors.New("permanent message failure")

// Permanent 包装错误为不可重试错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// streamClient 消费者用到的 Redis Stream 命令
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd
	XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Consumer 基于消费者组的 Redis Stream 消费者
type Consumer struct {
	client        streamClient
	stream        Stream
	group         ConsumerGroup
	consumerName  string
	blockTimeout  time.Duration
	claimInterval time.Duration
	retryLimit    int
	backoff       BackoffConfig

	handlers map[string]MessageHandler
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
}

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream        Stream
	Group         ConsumerGroup
	ConsumerName  string
	BlockTimeout  time.Duration
	ClaimInterval time.Duration
	// RetryLimit 最大投递次数，达到后移入死信队列
	RetryLimit int
	Backoff    BackoffConfig
}

// NewConsumer 创建消息消费者
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.Group == "" {
		cfg.Group = ConsumerGroupImportWorker
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.Backoff.Initial <= 0 || cfg.Backoff.Multiplier < 1 {
		cfg.Backoff = DefaultBackoffConfig()
	}

	c := &Consumer{
		stream:        cfg.Stream,
		group:         cfg.Group,
		consumerName:  cfg.ConsumerName,
		blockTimeout:  cfg.BlockTimeout,
		claimInterval: cfg.ClaimInterval,
		retryLimit:    cfg.RetryLimit,
		backoff:       cfg.Backoff,
		handlers:      make(map[string]MessageHandler),
		stopCh:        make(chan struct{}),
	}
	// 避免 nil 指针被包装成非 nil 接口
	if client != nil {
		c.client = client
	}
	return c
}

// RegisterHandler 注册消息处理器
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

// Start 创建消费者组（如不存在）并在后台开始消费
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	err := c.client.XGroupCreateMkStream(ctx, string(c.stream), string(c.group), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	go c.run(ctx)
	return nil
}

// Stop 停止消费者
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		close(c.stopCh)
		c.running = false
	}
}

func (c *Consumer) run(ctx context.Context) {
	logger.Info(ctx, "consumer started",
		"stream", c.stream,
		"group", c.group,
		"consumer", c.consumerName,
	)

	lastClaim := time.Time{}
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "consumer stopped due to context cancellation")
			return
		case <-c.stopCh:
			logger.Info(ctx, "consumer stopped")
			return
		default:
		}

		if time.Since(lastClaim) >= c.claimInterval {
			c.retryPending(ctx)
			lastClaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    string(c.group),
			Consumer: c.consumerName,
			Streams:  []string{string(c.stream), ">"},
			Count:    10,
			Block:    c.blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Error(ctx, "failed to read from stream", err, "stream", c.stream)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, xmsg := range s.Messages {
				c.process(ctx, xmsg)
			}
		}
	}
}

// retryPending 重投已过退避时间的 pending 消息，投递次数耗尽的移入死信队列
// 同时接管其他已退出消费者遗留的消息
func (c *Consumer) retryPending(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.stream),
		Group:  string(c.group),
		Start:  "-",
		End:    "+",
		Count:  50,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error(ctx, "failed to query pending messages", err, "stream", c.stream)
		}
		return
	}

	for _, p := range pending {
		exhausted := int(p.RetryCount) >= c.retryLimit
		minIdle := c.backoff.Delay(int(p.RetryCount))
		if !exhausted && p.Idle < minIdle {
			continue
		}

		claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   string(c.stream),
			Group:    string(c.group),
			Consumer: c.consumerName,
			MinIdle:  minIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			logger.Error(ctx, "failed to claim pending message", err, "message_id", p.ID)
			continue
		}

		for _, xmsg := range claimed {
			if exhausted {
				c.discard(ctx, xmsg, fmt.Sprintf("exceeded %d delivery attempts", c.retryLimit))
				continue
			}
			c.process(ctx, xmsg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := tracer.Start(ctx, "consumer.process",
		trace.WithAttributes(
			attribute.String("stream", string(c.stream)),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	msg, err := decodeMessage(xmsg)
	if err != nil {
		span.RecordError(err)
		c.discard(ctx, xmsg, err.Error())
		metrics.RedisStreamConsumed.WithLabelValues(string(c.stream), "malformed").Inc()
		return
	}

	ctx = logger.WithContext(ctx, logger.StoryIDKey, msg.StoryID)
	if reqID := msg.Metadata["request_id"]; reqID != "" {
		ctx = logger.WithContext(ctx, logger.RequestIDKey, reqID)
	}
	span.SetAttributes(
		attribute.String("message.id", msg.ID),
		attribute.String("message.type", msg.Type),
	)

	err = c.dispatch(ctx, msg)
	switch {
	case errors.Is(err, errNoHandler):
		logger.Warn(ctx, "no handler for message type", "type", msg.Type)
		c.ack(ctx, xmsg.ID)
		metrics.RedisStreamConsumed.WithLabelValues(string(c.stream), "skipped").Inc()
	case errors.Is(err, ErrPermanent):
		span.RecordError(err)
		logger.Error(ctx, "message handler failed permanently", err, "message_id", msg.ID)
		c.discard(ctx, xmsg, err.Error())
	case err != nil:
		span.RecordError(err)
		logger.Error(ctx, "message handler failed, left pending for retry", err, "message_id", msg.ID)
		metrics.RedisStreamConsumed.WithLabelValues(string(c.stream), "retry").Inc()
	default:
		c.ack(ctx, xmsg.ID)
		metrics.RedisStreamConsumed.WithLabelValues(string(c.stream), "ok").Inc()
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg *Message) error {
	c.mu.RLock()
	handler, ok := c.handlers[msg.Type]
	c.mu.RUnlock()
	if !ok {
		return errNoHandler
	}
	return handler(ctx, msg)
}

// decodeMessage 解析生产者写入的 data 字段
func decodeMessage(xmsg redis.XMessage) (*Message, error) {
	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no data field", xmsg.ID)
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", xmsg.ID, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message %s has no type", xmsg.ID)
	}
	return &msg, nil
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, string(c.stream), string(c.group), id).Err(); err != nil {
		logger.Error(ctx, "failed to ack message", err, "message_id", id)
	}
}

// discard 转存死信后确认；转存失败时保留在 pending 列表，下次重投时再处理
func (c *Consumer) discard(ctx context.Context, xmsg redis.XMessage, reason string) {
	if err := c.deadLetter(ctx, xmsg, reason); err != nil {
		return
	}
	c.ack(ctx, xmsg.ID)
}

// deadLetter 原样转存到死信流，保留原始 data 便于人工重放
func (c *Consumer) deadLetter(ctx context.Context, xmsg redis.XMessage, reason string) error {
	dlq := c.stream.DLQStream()
	values := map[string]interface{}{
		"original_stream": string(c.stream),
		"original_id":     xmsg.ID,
		"error":           reason,
		"failed_at":       time.Now().Unix(),
	}
	if raw, ok := xmsg.Values["data"].(string); ok {
		values["data"] = raw
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		logger.Error(ctx, "failed to move message to DLQ", err, "message_id", xmsg.ID, "dlq", dlq)
		return fmt.Errorf("failed to add message to DLQ: %w", err)
	}
	logger.Warn(ctx, "message moved to DLQ", "message_id", xmsg.ID, "dlq", dlq, "reason", reason)
	metrics.RedisStreamConsumed.WithLabelValues(string(c.stream), "dead_letter").Inc()
	return nil
}
