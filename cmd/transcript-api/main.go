package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/transcript-api/internal/repository"
	"github.com/noah-isme/transcript-api/pkg/cache"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/database"
	"github.com/noah-isme/transcript-api/pkg/logger"
)

// @title Transcript API
// @version 1.0.0
// @description Parses academic transcripts and keeps per-user GPA records.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := repository.NewTranscriptRepository(db, nil).EnsureSchema(ctx)
		cancel()
		if err != nil {
			logr.Sugar().Fatalw("schema migration failed", "error", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			// parsing keeps working without the cache
			logr.Sugar().Warnw("redis unavailable, parse cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	router := newRouter(cfg, logr, db, redisClient)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
