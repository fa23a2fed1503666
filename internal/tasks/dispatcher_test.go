package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncQueue runs jobs through a registry on Submit and hands the result to Await.
type syncQueue struct {
	mu        sync.Mutex
	reg       *Registry
	results   map[string]*Result
	submitErr error
	awaitErr  error
	timeouts  []time.Duration
}

func newSyncQueue(reg *Registry) *syncQueue {
	return &syncQueue{reg: reg, results: map[string]*Result{}}
}

func (q *syncQueue) Submit(ctx context.Context, job Job) (string, error) {
	if q.submitErr != nil {
		return "", q.submitErr
	}
	out, err := q.reg.Execute(ctx, job)
	res := &Result{JobID: job.ID, Kind: job.Kind, Output: out}
	if err != nil {
		res.Error = err.Error()
	}
	q.mu.Lock()
	q.results[job.ID] = res
	q.mu.Unlock()
	return job.ID, nil
}

func (q *syncQueue) SubmitAfter(ctx context.Context, job Job, delay time.Duration) (string, error) {
	return job.ID, nil
}

func (q *syncQueue) Await(ctx context.Context, id string, timeout time.Duration) (*Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.timeouts = append(q.timeouts, timeout)
	if q.awaitErr != nil {
		return nil, q.awaitErr
	}
	return q.results[id], nil
}

type taskCounter struct{ outcomes []string }

func (c *taskCounter) ObserveTask(kind, outcome string) {
	c.outcomes = append(c.outcomes, kind+"/"+outcome)
}

func TestDispatcher_Run(t *testing.T) {
	q := newSyncQueue(NewRegistry(newTestDeps().Deps))
	obs := &taskCounter{}
	d := NewDispatcher(q, DispatcherConfig{}, nil, obs)

	disp, ok := Classify("what's 2+2")
	require.True(t, ok)
	assert.Equal(t, "🧮 Calculation: 2+2 = 4", d.Run(context.Background(), "u1", disp))
	assert.Equal(t, []string{"calculator/ok"}, obs.outcomes)
	assert.Equal(t, []time.Duration{10 * time.Second}, q.timeouts)
}

func TestDispatcher_WhatsAppUsesLongerTimeout(t *testing.T) {
	q := newSyncQueue(NewRegistry(Deps{}))
	d := NewDispatcher(q, DispatcherConfig{Timeout: time.Second, WhatsAppTimeout: 3 * time.Second}, nil, nil)

	disp, _ := Classify("whatsapp +14155550123 saying hi")
	d.Run(context.Background(), "u1", disp)
	assert.Equal(t, []time.Duration{3 * time.Second}, q.timeouts)
}

func TestDispatcher_FailuresBecomeText(t *testing.T) {
	disp, _ := Classify("what's 2+2")

	q := newSyncQueue(NewRegistry(Deps{}))
	q.awaitErr = ErrAwaitTimeout
	out := NewDispatcher(q, DispatcherConfig{}, nil, nil).Run(context.Background(), "u1", disp)
	assert.Equal(t, "⚠️ Sorry, I couldn't complete that calculator task: it took too long to finish", out)

	q = newSyncQueue(NewRegistry(Deps{}))
	q.submitErr = errors.New("redis down")
	out = NewDispatcher(q, DispatcherConfig{}, nil, nil).Run(context.Background(), "u1", disp)
	assert.Equal(t, "⚠️ Sorry, I couldn't complete that calculator task: the task queue is unavailable", out)

	q = newSyncQueue(NewRegistry(Deps{}))
	out = NewDispatcher(q, DispatcherConfig{}, nil, nil).Run(context.Background(), "u1",
		Dispatch{Kind: KindCalculator, Args: map[string]string{ArgExpr: "5/0"}})
	assert.Equal(t, "⚠️ Sorry, I couldn't complete that calculator task: division by zero", out)

	out = NewDispatcher(q, DispatcherConfig{}, nil, nil).Run(context.Background(), "u1", Dispatch{Kind: "email"})
	assert.Equal(t, "⚠️ Sorry, I couldn't complete that email task: unknown task type", out)
}
