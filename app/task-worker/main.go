package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yooassist/config"
	"github.com/yoockh/yooassist/internal/container"
	"github.com/yoockh/yooassist/internal/logger"
)

// task-worker runs the queue consumers, the delayed-job promoter, the overdue
// reminder sweeper and, when Kafka is configured, the archive consumer.
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

	rdb, err := config.InitRedis(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	defer rdb.Close()

	stores := container.Stores{Mongo: mongoClient.Database(cfg.Mongo.DB), Redis: rdb}
	if cfg.Postgres.URI != "" {
		pg, err := config.InitPostgres(cfg.Postgres)
		if err != nil {
			log.WithError(err).Warn("postgres unavailable, archive consumer disabled")
		} else {
			stores.Postgres = pg
		}
	}

	c, err := container.Build(ctx, cfg, stores, log)
	if err != nil {
		log.WithError(err).Fatal("container build failed")
	}
	defer c.Close()

	pool := c.WorkerPool()
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("task workers failed to start")
	}

	sweeper := c.Sweeper()
	sweeper.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	if cons := c.ArchiveConsumer(); cons != nil {
		g.Go(func() error { return cons.Run(gctx) })
	} else {
		log.Info("kafka or postgres not configured, archive consumer not started")
	}

	log.WithFields(logrus.Fields{
		"workers": cfg.Tasks.Workers,
		"stream":  c.Queue.Stream(),
	}).Info("task worker running")

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("archive consumer stopped")
	}
	<-ctx.Done()

	sweeper.Stop()
	pool.Wait()
	log.Info("task worker stopped")
}
