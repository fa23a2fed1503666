package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/yooassist/internal/cache"
	"github.com/yoockh/yooassist/internal/embedding"
	"github.com/yoockh/yooassist/internal/providers/llm"
	"github.com/yoockh/yooassist/internal/repositories/mongo/mongotest"
	"github.com/yoockh/yooassist/internal/tasks"
)

func newSessions(t *testing.T) cache.SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisSessionStore(rdb, 20, time.Hour)
}

func newMemory(facts *mongotest.Facts, sem *mongotest.Semantic) MemoryService {
	return NewMemoryService(facts, sem, embedding.NewHashingEmbedder(256), MemoryConfig{}, nil)
}

// fakeLLM records every completion request.
type fakeLLM struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply llm.Result
}

func (f *fakeLLM) Complete(ctx context.Context, msgs []llm.Message) llm.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	return f.reply
}

func (f *fakeLLM) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// inlineQueue executes submitted jobs immediately and parks delayed ones.
type inlineQueue struct {
	mu      sync.Mutex
	reg     *tasks.Registry
	results map[string]*tasks.Result
	delayed []tasks.Job
	delays  []time.Duration
	err     error
}

func newInlineQueue() *inlineQueue {
	return &inlineQueue{results: map[string]*tasks.Result{}}
}

func (q *inlineQueue) Submit(ctx context.Context, job tasks.Job) (string, error) {
	out, err := q.reg.Execute(ctx, job)
	res := &tasks.Result{JobID: job.ID, Kind: job.Kind, Output: out}
	if err != nil {
		res.Error = err.Error()
	}
	q.mu.Lock()
	q.results[job.ID] = res
	q.mu.Unlock()
	return job.ID, nil
}

func (q *inlineQueue) SubmitAfter(ctx context.Context, job tasks.Job, delay time.Duration) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	if job.ID == "" {
		job.ID = "delayed-" + string(rune('a'+len(q.delayed)))
	}
	q.delayed = append(q.delayed, job)
	q.delays = append(q.delays, delay)
	return job.ID, nil
}

func (q *inlineQueue) Await(ctx context.Context, id string, timeout time.Duration) (*tasks.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	res, ok := q.results[id]
	if !ok {
		return nil, tasks.ErrAwaitTimeout
	}
	return res, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, userID+"|"+message)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type triggerCounter struct {
	mu    sync.Mutex
	paths []string
}

func (c *triggerCounter) ObserveReminderTrigger(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}
