package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estatehub/marketplace-api/internal/api"
	"github.com/estatehub/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/estatehub/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/estatehub/marketplace-api/internal/infrastructure/db/redis"
	"github.com/estatehub/marketplace-api/internal/infrastructure/queue"
	"github.com/estatehub/marketplace-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	listingRepo := mongodb.NewListingRepository(db)
	postRepo := mongodb.NewPostRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	for _, ensure := range []func(context.Context) error{
		listingRepo.EnsureIndexes,
		postRepo.EnsureIndexes,
		userRepo.EnsureIndexes,
		auditRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("index bootstrap failed")
		}
	}

	dispatcher := queue.NewDispatcher(0, auditRepo, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(cfg, db, rdb, dispatcher, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("marketplace api started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
