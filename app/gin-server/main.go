package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/config"
	"github.com/yoockh/yooassist/internal/api/middleware"
	"github.com/yoockh/yooassist/internal/api/routes"
	"github.com/yoockh/yooassist/internal/container"
	"github.com/yoockh/yooassist/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := config.InitMongo(ctx, cfg.Mongo)
	if err != nil {
		log.WithError(err).Fatal("mongo init failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.Mongo.DB)
	if err := config.EnsureMongoIndexes(ctx, db); err != nil {
		log.WithError(err).Warn("mongo index setup failed")
	}
	log.Info("mongo connected")

	rdb, err := config.InitRedis(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	defer rdb.Close()
	log.Info("redis connected")

	stores := container.Stores{Mongo: db, Redis: rdb}
	if cfg.Postgres.URI != "" {
		pg, err := config.InitPostgres(cfg.Postgres)
		if err != nil {
			log.WithError(err).Warn("postgres unavailable, conversation archive disabled")
		} else {
			stores.Postgres = pg
			log.Info("postgres connected")
		}
	}

	c, err := container.Build(ctx, cfg, stores, log)
	if err != nil {
		log.WithError(err).Fatal("container build failed")
	}
	defer c.Close()

	ready := make(chan struct{})
	go func() {
		if err := c.Hub.Listen(ctx, rdb, ready); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("notification listener stopped")
		}
	}()

	if cfg.Server.EmbeddedWorkers {
		pool := c.WorkerPool()
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("task workers failed to start")
		}
		defer pool.Wait()

		sweeper := c.Sweeper()
		sweeper.Start(ctx)
		defer sweeper.Stop()
		log.WithField("workers", cfg.Tasks.Workers).Info("embedded task workers started")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	routes.RegisterRoutes(r, c.RouteDeps())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
		_ = srv.Close()
	}
	log.Info("shutdown complete")
}
