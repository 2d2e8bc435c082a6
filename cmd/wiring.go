package main

import (
	"context"
	"errors"

	"hzroom/internal/app/assistant"
	"hzroom/internal/app/bot"
	"hzroom/internal/app/chat"
	"hzroom/internal/app/db"
	"hzroom/internal/app/directory"
	"hzroom/internal/app/storage"
	"hzroom/internal/app/topic"
	"hzroom/internal/configs"
	"hzroom/internal/handler"
	"hzroom/internal/pkg/logx"
)

// openChannel picks the Redis transport when REDIS_ADDR is set, the in-process one otherwise.
func openChannel(ctx context.Context, cfg *configs.AppConfig) (topic.Channel, error) {
	logger := logx.Component("topic")

	if cfg.RedisAddr == "" {
		return topic.NewMemory(logger), nil
	}
	return topic.NewRedis(ctx, cfg.RedisAddr, logger)
}

// openDirectory uses Postgres when DATABASE_URL is set and seeds it with the configured
// servers; otherwise the configured list is served as is. The returned func releases the pool.
func openDirectory(ctx context.Context, cfg *configs.AppConfig) (directory.Source, func(), error) {
	if cfg.DatabaseDSN == "" {
		static, err := directory.NewStatic(cfg.Room.Servers)
		return static, func() {}, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	pg := directory.NewPostgres(pool)
	added, err := pg.Seed(ctx, cfg.Room.Servers)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logx.Info("Server directory ready.", "backend", "postgres", "seeded", added)

	return pg, pool.Close, nil
}

func openStorage(cfg *configs.AppConfig) (storage.StorageService, error) {
	svc, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3Region:          cfg.S3Region,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if errors.Is(err, storage.ErrDisabled) {
		logx.Info("Avatar storage is not configured; uploads disabled.")
		return nil, nil
	}
	return svc, err
}

func newDispatcher(cfg *configs.AppConfig) *bot.Dispatcher {
	var completer bot.Completer
	if cfg.AssistantEndpoint != "" {
		completer = assistant.NewClient(assistant.Config{
			Endpoint: cfg.AssistantEndpoint,
			APIKey:   cfg.AssistantAPIKey,
			Model:    cfg.AssistantModel,
			Timeout:  cfg.AssistantTimeout,
		})
	} else {
		logx.Warn("ASSISTANT_ENDPOINT is not set; the assistant bot will only answer with its fallback.")
	}

	return bot.NewDispatcher(cfg.BotConfig(), completer, logx.Component("bot"))
}

// app is everything serve builds, with the order to release it in.
type app struct {
	deps    *handler.AppDeps
	channel topic.Channel
	release []func()
}

func (a *app) Close() {
	if a.deps != nil && a.deps.Manager != nil {
		a.deps.Manager.Shutdown()
	}
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			logx.Error(err, "Failed to close topic channel")
		}
	}
	for i := len(a.release) - 1; i >= 0; i-- {
		a.release[i]()
	}
}

func buildApp(ctx context.Context, cfg *configs.AppConfig) (*app, error) {
	a := &app{}

	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.release = append(a.release, closeDir)

	store, err := openStorage(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	ch, err := openChannel(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.channel = ch

	manager := chat.NewManager(ch, cfg.BaseChannel, chat.SessionConfig{
		HeartbeatPeriod: cfg.HeartbeatPeriod,
		CleanupPeriod:   cfg.CleanupPeriod,
		TTL:             cfg.PresenceTTL,
	}, newDispatcher(cfg))

	a.deps = &handler.AppDeps{
		Config:    cfg,
		Manager:   manager,
		Directory: dir,
		Storage:   store,
	}
	return a, nil
}
