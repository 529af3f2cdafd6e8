//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/config"
	"github.com/onedollarbanana/FictionForge-sub002/internal/domain/repository"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/messaging"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/persistence/postgres"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/persistence/redis"
	"github.com/onedollarbanana/FictionForge-sub002/internal/interfaces/http/handler"
	"github.com/onedollarbanana/FictionForge-sub002/internal/interfaces/http/middleware"
	"github.com/onedollarbanana/FictionForge-sub002/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		ApplicationSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewChapterRepository,
	postgres.NewStoryRepository,
	postgres.NewSubscriptionRepository,
	postgres.NewCommentRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
	wire.Bind(new(repository.SubscriptionRepository), new(*postgres.SubscriptionRepository)),
	wire.Bind(new(repository.CommentRepository), new(*postgres.CommentRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideAuthorCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(handler.ImportEventPublisher), new(*messaging.Producer)),
)

// ApplicationSet 应用服务提供者集合
var ApplicationSet = wire.NewSet(
	ProvideAuthorResolver,
	ProvideDocxConverter,
	ProvideImporter,
	access.NewGate,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewChapterHandler,
	handler.NewImportHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
