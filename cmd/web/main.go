package main

import (
	"context"
	"log"
	"time"

	"battle-pollster/config"
	"battle-pollster/internal/api"
	"battle-pollster/internal/cache"
	"battle-pollster/internal/middleware"
	"battle-pollster/internal/redis"
	"battle-pollster/internal/server"
	"battle-pollster/internal/services"
	"battle-pollster/internal/storage"
	"battle-pollster/internal/websocket"
	"battle-pollster/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.ViewerTimezone)
	if err != nil {
		l.Warnf("unknown VIEWER_TIMEZONE %q, using the server zone: %v", cfg.ViewerTimezone, err)
		loc = time.Local
	}
	sessionTTL := time.Duration(cfg.SessionTTLMin) * time.Minute

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var (
		store     cache.Store = cache.NewMemory(sessionTTL)
		limiter   middleware.AuthLimiter
		publisher services.TallyPublisher = hub
	)
	if cfg.RedisEnabled {
		rdb := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		store = redis.NewCacheStore(rdb, redis.CacheConfig{EntryTTL: sessionTTL})
		limiter = redis.NewRateLimiter(rdb, redis.RateLimitConfig{
			AuthLimit:  cfg.AuthRateLimit,
			AuthWindow: time.Duration(cfg.AuthRateWindow) * time.Second,
		})
		relay := websocket.NewRelay(redis.NewPubSub(rdb), hub, l)
		go func() { _ = relay.Run(ctx) }()
		publisher = relay
		l.Infof("Using redis at %s:%s", cfg.RedisHost, cfg.RedisPort)
	}

	host, err := newImageHost(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to configure image host: %v", err)
	}

	workspaces := services.NewWorkspaces(
		services.WorkspacesConfig{IdleTTL: sessionTTL},
		services.APIBackend(api.Options{
			BaseURL: cfg.BackendURL,
			Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		}, l),
		store,
		services.NewUploadService(host),
		publisher,
		l,
	)
	go workspaces.Run(ctx, time.Minute)

	srv := server.New(cfg, l)
	srv.SetupRoutes(server.Dependencies{
		Workspaces:     workspaces,
		Cache:          store,
		Hub:            hub,
		AuthLimiter:    limiter,
		ViewerLocation: loc,
	})
	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
}

func newImageHost(ctx context.Context, cfg *config.Config) (storage.ImageHost, error) {
	switch cfg.ImageHost {
	case config.ImageHostS3:
		client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			ACL:        cfg.S3ACL,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewS3Host(client, "polls"), nil
	default:
		return storage.NewCloudinaryHost(storage.CloudinaryConfig{
			UploadURL:    cfg.CloudinaryUploadURL,
			UploadPreset: cfg.CloudinaryUploadPreset,
			Timeout:      time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		})
	}
}
