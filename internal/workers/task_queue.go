package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/tasks"
)

const (
	DefaultStream     = "tasks:stream"
	DefaultGroup      = "task-workers"
	DefaultDelayedKey = "tasks:delayed"
	resultKeyPrefix   = "tasks:result:"
	resultTTL         = 5 * time.Minute
	promoteBatch      = 100
)

// TaskQueue carries jobs over a Redis stream. Results go to a per-job list that the
// submitter BLPOPs; delayed jobs wait in a sorted set scored by run-at time.
type TaskQueue struct {
	rdb        *redis.Client
	stream     string
	delayedKey string
	log        logrus.FieldLogger
}

var _ tasks.Queue = (*TaskQueue)(nil)

func NewTaskQueue(rdb *redis.Client, stream string, log logrus.FieldLogger) *TaskQueue {
	if stream == "" {
		stream = DefaultStream
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &TaskQueue{rdb: rdb, stream: stream, delayedKey: DefaultDelayedKey, log: log}
}

func (q *TaskQueue) Stream() string { return q.stream }

func resultKey(jobID string) string { return resultKeyPrefix + jobID }

func prepare(job tasks.Job) (tasks.Job, []byte, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	b, err := json.Marshal(job)
	return job, b, err
}

func (q *TaskQueue) Submit(ctx context.Context, job tasks.Job) (string, error) {
	job, b, err := prepare(job)
	if err != nil {
		return "", err
	}
	if err := q.push(ctx, b); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (q *TaskQueue) push(ctx context.Context, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{"job": string(payload)},
	}).Err()
}

// SubmitAfter parks the job until delay has passed; PromoteDue moves it onto the stream.
func (q *TaskQueue) SubmitAfter(ctx context.Context, job tasks.Job, delay time.Duration) (string, error) {
	if delay <= 0 {
		return q.Submit(ctx, job)
	}
	job, b, err := prepare(job)
	if err != nil {
		return "", err
	}
	runAt := time.Now().Add(delay).UnixMilli()
	if err := q.rdb.ZAdd(ctx, q.delayedKey, redis.Z{Score: float64(runAt), Member: string(b)}).Err(); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Await blocks until the job's result arrives or timeout elapses. Redis rounds
// blocking timeouts up to whole seconds.
func (q *TaskQueue) Await(ctx context.Context, jobID string, timeout time.Duration) (*tasks.Result, error) {
	vals, err := q.rdb.BLPop(ctx, timeout, resultKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, tasks.ErrAwaitTimeout
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if len(vals) != 2 {
		return nil, errors.New("malformed result reply")
	}
	var res tasks.Result
	if err := json.Unmarshal([]byte(vals[1]), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PublishResult stores res for the submitter. Nobody may be waiting; the key expires.
func (q *TaskQueue) PublishResult(ctx context.Context, res tasks.Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	key := resultKey(res.JobID)
	pipe := q.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.Expire(ctx, key, resultTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// PromoteDue moves delayed jobs whose run-at time has passed onto the stream. The
// ZREM result decides which promoter owns a member, so concurrent promoters never
// enqueue the same job twice.
func (q *TaskQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	members, err := q.rdb.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, m := range members {
		n, err := q.rdb.ZRem(ctx, q.delayedKey, m).Result()
		if err != nil {
			return moved, err
		}
		if n == 0 {
			continue
		}
		if err := q.push(ctx, []byte(m)); err != nil {
			// put it back so the next tick retries
			_ = q.rdb.ZAdd(ctx, q.delayedKey, redis.Z{Score: float64(now.UnixMilli()), Member: m}).Err()
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// RunPromoter calls PromoteDue every interval until ctx is done.
func (q *TaskQueue) RunPromoter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n, err := q.PromoteDue(ctx, now); err != nil {
				if ctx.Err() == nil {
					q.log.WithError(err).Warn("delayed job promotion failed")
				}
			} else if n > 0 {
				q.log.WithField("count", n).Debug("promoted delayed jobs")
			}
		}
	}
}
