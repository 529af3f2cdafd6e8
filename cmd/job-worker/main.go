// Package main 异步任务执行器入口（job-worker），消费章节导入事件
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onedollarbanana/FictionForge-sub002/internal/application/access"
	"github.com/onedollarbanana/FictionForge-sub002/internal/config"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/messaging"
	"github.com/onedollarbanana/FictionForge-sub002/internal/infrastructure/persistence/postgres"
	"github.com/onedollarbanana/FictionForge-sub002/internal/wire"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/tracer"
)

// Version 版本信息，构建时注入
var Version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    "job-worker",
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SampleRate:     cfg.Observability.Tracing.SampleRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	pgClient, cleanupPG, err := wire.ProvidePostgresClient(cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer cleanupPG()

	redisClient, cleanupRedis, err := wire.ProvideRedisClient(cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer cleanupRedis()

	authors := wire.ProvideAuthorResolver(cfg, wire.ProvideAuthorCache(redisClient), postgres.NewStoryRepository(pgClient))
	warmer := access.NewImportWarmer(postgres.NewChapterRepository(pgClient), authors)

	consumer := wire.ProvideImportConsumer(cfg, redisClient, hostnameConsumerName())
	consumer.RegisterHandler(messaging.TypeChaptersImported, func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.ChaptersImportedMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		_, err := warmer.HandleImported(ctx, payload.StoryID, payload.AuthorID, payload.ChapterIDs)
		return err
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	logger.Info(ctx, "job-worker started", "version", Version, "stream", messaging.StreamChapterImport)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "job-worker shutting down")
	consumer.Stop()
	cancel()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
