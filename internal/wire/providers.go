package wire

import (
	"fmt"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/application/importer"
	"github.com/onedollarbanana/FictionForge-sub002/internal/config"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/docconv"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/messaging"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/persistence/postgres"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/persistence/redis"
	"github.com/onedollarbanana/FictionForge-sub002/internal/interfaces/http/handler"
)

// authorCacheName 作者缓存的指标名
const authorCacheName = "story_author"

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideAuthorCache 提供作者缓存
func ProvideAuthorCache(redisClient *redis.Client) *redis.Cache {
	return redis.NewCache(redisClient, authorCacheName)
}

// ProvideAuthorResolver 提供带缓存的作者解析器
func ProvideAuthorResolver(cfg *config.Config, cache *redis.Cache, stories *postgres.StoryRepository) access.AuthorResolver {
	return access.NewCachedAuthorResolver(cache, access.NewRepositoryAuthorResolver(stories), cfg.Access.AuthorCacheTTL)
}

// ProvideDocxConverter 按配置选择 DOCX 转换器
func ProvideDocxConverter(cfg *config.Config) (importer.DocxConverter, error) {
	docx := cfg.Importer.Docx
	switch docx.Converter {
	case "", "local":
		return docconv.NewLocalConverter(cfg.Importer.MaxMemberBytes), nil
	case "remote":
		if docx.RemoteURL == "" {
			return nil, fmt.Errorf("importer.docx.remote_url is required for the remote converter")
		}
		return docconv.NewRemoteConverter(docx.RemoteURL, docx.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown docx converter %q", docx.Converter)
	}
}

// ProvideImporter 提供稿件导入器
func ProvideImporter(cfg *config.Config, docx importer.DocxConverter) *importer.Importer {
	return importer.New(docx, ImporterOptions(cfg))
}

// ImporterOptions 从配置构建导入选项
func ImporterOptions(cfg *config.Config) importer.Options {
	return importer.Options{
		MaxUploadBytes: cfg.Importer.MaxUploadBytes,
		MaxMemberBytes: cfg.Importer.MaxMemberBytes,
		EpubWorkers:    cfg.Importer.EpubWorkers,
	}
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(pg *postgres.Client, redisClient *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(pg, redisClient)
}

// ProvideImportConsumer 导入事件消费者，job-worker 使用
func ProvideImportConsumer(cfg *config.Config, redisClient *redis.Client, consumerName string) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamChapterImport,
		Group:         messaging.ConsumerGroup(rs.ConsumerGroup),
		ConsumerName:  consumerName,
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
}
