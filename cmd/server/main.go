package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/console-conteudo/backend/internal/config"
	"github.com/console-conteudo/backend/internal/database"
	"github.com/console-conteudo/backend/internal/document/repository"
	"github.com/console-conteudo/backend/internal/document/service"
	"github.com/console-conteudo/backend/internal/server"
	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/console-conteudo/backend/pkg/metrics"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: env=%s db=%s redis=%v", cfg.Server.Environment, cfg.MongoDB.Database, cfg.Redis.Addr() != "")
	if !cfg.Server.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := database.NewMongoManager(cfg.MongoDB)
	if _, err := manager.Get(ctx); err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	repo := repository.NewMongoRepo(manager)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warnf("failed to ensure indexes: %v", err)
	}

	rdb := connectRedis(ctx, cfg)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := server.New(server.Deps{
		Config:  cfg,
		Service: service.New(repo),
		Store:   manager,
		Redis:   rdb,
		Started: startTime,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Errorf("server failed: %v", err)
	case <-ctx.Done():
		logger.Infof("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := manager.Close(shutdownCtx); err != nil {
		logger.Warnf("store close: %v", err)
	}
	logger.Infof("bye")
}

// connectRedis returns a client only when the Redis limiter is requested and
// the server answers a ping.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.RateLimit.Enabled || !cfg.RateLimit.UseRedis || cfg.Redis.Addr() == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis %s unreachable, using in-memory rate limiter: %v", cfg.Redis.Addr(), err)
		_ = rdb.Close()
		return nil
	}
	logger.Infof("connected to redis %s", cfg.Redis.Addr())
	return rdb
}
