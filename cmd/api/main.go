package main

import (
	"context"

	"github.com/webforge-labs/webforge-backend/config"
	"github.com/webforge-labs/webforge-backend/internal/api/http/middleware"
	"github.com/webforge-labs/webforge-backend/internal/auth"
	"github.com/webforge-labs/webforge-backend/internal/bootstrap"
	"github.com/webforge-labs/webforge-backend/internal/files"
	"github.com/webforge-labs/webforge-backend/internal/logging"
	"github.com/webforge-labs/webforge-backend/internal/projects/repository"
	"github.com/webforge-labs/webforge-backend/internal/projects/service"
	"github.com/webforge-labs/webforge-backend/internal/sandbox"
	"github.com/webforge-labs/webforge-backend/internal/storage/postgres"
	"github.com/webforge-labs/webforge-backend/internal/users"
)

const serviceName = "webforge-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Fatal("load config", "error", err)
	}

	log := logging.New(cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()
	dsn := postgres.DSN(&cfg.Database)

	if err := postgres.Migrate(dsn); err != nil {
		log.Fatal("migrate database", "error", err)
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: dsn})
	if err != nil {
		log.Fatal("open database", "error", err)
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal("open redis", "error", err)
	}
	defer rdb.Close()

	fbClient, err := auth.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatal("initialize firebase", "error", err)
	}

	userRepo := users.NewRepo(pool)
	sessions := auth.NewSessionStore(rdb, cfg.App.SessionTTL)
	gate := auth.NewGate(auth.NewFirebaseVerifier(fbClient), sessions, userRepo)

	gateway := sandbox.NewClient(&cfg.Sandbox)
	lifecycle := service.NewLifecycle(repository.NewRepo(pool), gateway, log)

	cache := files.NewCacheRepo(pool)
	var snaps files.SnapshotStore = files.NopSnapshots{}
	if cfg.Backup.Endpoint != "" {
		s, err := files.NewMinioSnapshots(ctx, &cfg.Backup)
		if err != nil {
			log.Fatal("initialize snapshot store", "error", err)
		}
		snaps = s
	}
	fileHandler := files.NewHandler(lifecycle, gateway, cache, snaps, log)

	sweeper := files.NewSweeper(cache, cfg.App.CacheRetention, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal("start cache sweeper", "error", err)
	}
	defer sweeper.Stop()

	limiter := middleware.NewRateLimiter(20, 40)
	defer limiter.Close()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log,
		DB:             pool,
		Redis:          rdb,
		Gate:           gate,
		Lifecycle:      lifecycle,
		Files:          fileHandler,
		RateLimiter:    limiter,
	})

	log.Info("listening", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
