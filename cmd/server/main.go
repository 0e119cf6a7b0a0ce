package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/courtside/academy-platform/internal/api"
	"github.com/courtside/academy-platform/internal/core/service"
	mongodb "github.com/courtside/academy-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/courtside/academy-platform/internal/infrastructure/db/redis"
	"github.com/courtside/academy-platform/internal/infrastructure/queue"
	"github.com/courtside/academy-platform/internal/pkg/config"
	"github.com/courtside/academy-platform/internal/ratelimit"
	"github.com/courtside/academy-platform/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backing stores ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	assignmentRepo := mongodb.NewAssignmentRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := assignmentRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("assignment index creation failed")
	}
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("audit index creation failed")
	}

	// --- Rate limiter ---
	limitCfg := ratelimit.Config{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      time.Duration(cfg.RateLimit.WindowMs) * time.Millisecond,
	}
	var limiter ratelimit.Limiter
	var rdb *goredis.Client
	if cfg.RateLimit.Backend == "redis" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, limitCfg)
	} else {
		limiter = ratelimit.NewMemoryLimiter(limitCfg)
	}

	// --- Services ---
	auditService := service.NewAuditService(auditRepo, log)
	dispatcher := queue.NewAuditDispatcher(cfg.Audit.Workers, auditService, log)
	dispatcher.Start(ctx)

	rbacService := service.NewRBACService(assignmentRepo, dispatcher, limiter, log)
	migrationService := service.NewMigrationService(assignmentRepo, dispatcher, log)

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		DB:        db,
		Redis:     rdb,
		RBAC:      rbacService,
		Audit:     auditService,
		Migration: migrationService,
		Limiter:   limiter,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("rbac service started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
