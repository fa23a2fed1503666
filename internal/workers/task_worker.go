package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/tasks"
)

// Executor runs one job; *tasks.Registry implements it.
type Executor interface {
	Execute(ctx context.Context, job tasks.Job) (string, error)
}

type TaskWorkerPool struct {
	Redis      *redis.Client
	Queue      *TaskQueue
	Executor   Executor
	NumWorkers int
	JobTimeout time.Duration

	Logger *logrus.Logger

	Group          string
	ConsumerPrefix string
	PromoteEvery   time.Duration

	wg sync.WaitGroup
}

func (p *TaskWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Queue == nil || p.Executor == nil {
		return errors.New("TaskWorkerPool missing dependency: Redis/Queue/Executor must be set")
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.JobTimeout <= 0 {
		p.JobTimeout = 60 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	if err := p.Redis.XGroupCreateMkStream(ctx, p.Queue.Stream(), p.Group, "0").Err(); err != nil && !isBusyGroup(err) {
		return err
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runConsumer(ctx, consumer)
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Queue.RunPromoter(ctx, p.PromoteEvery)
	}()

	p.Logger.WithFields(logrus.Fields{"workers": p.NumWorkers, "stream": p.Queue.Stream(), "group": p.Group}).Info("task workers started")
	return nil
}

// Wait blocks until every consumer has returned after ctx cancellation.
func (p *TaskWorkerPool) Wait() { p.wg.Wait() }

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func (p *TaskWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Queue.Stream(), ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Queue.Stream(), p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *TaskWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	raw, _ := msg.Values["job"].(string)
	var job tasks.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil || job.ID == "" {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed job")
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"job_id":   job.ID,
		"kind":     job.Kind,
		"user_id":  job.UserID,
	})

	start := time.Now()
	jctx, cancel := context.WithTimeout(ctx, p.JobTimeout)
	out, err := p.Executor.Execute(jctx, job)
	cancel()

	res := tasks.Result{JobID: job.ID, Kind: job.Kind, Output: out, FinishedAt: time.Now().UTC()}
	if err != nil {
		res.Error = err.Error()
		log.WithError(err).Warn("task failed")
	} else {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("task done")
	}

	if err := p.Queue.PublishResult(ctx, res); err != nil {
		log.WithError(err).Error("publishing task result failed")
	}
}
