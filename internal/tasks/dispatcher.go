package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrAwaitTimeout is returned by Queue.Await when no result arrived in time. The job
// itself keeps running; its late result is discarded.
var ErrAwaitTimeout = errors.New("timed out waiting for task result")

type Queue interface {
	Submit(ctx context.Context, job Job) (string, error)
	SubmitAfter(ctx context.Context, job Job, delay time.Duration) (string, error)
	Await(ctx context.Context, jobID string, timeout time.Duration) (*Result, error)
}

type Observer interface {
	ObserveTask(kind, outcome string)
}

type DispatcherConfig struct {
	Timeout         time.Duration
	WhatsAppTimeout time.Duration
}

// Dispatcher sends classified messages to the worker queue and waits for the answer.
type Dispatcher struct {
	queue    Queue
	cfg      DispatcherConfig
	log      logrus.FieldLogger
	observer Observer
}

func NewDispatcher(q Queue, cfg DispatcherConfig, log logrus.FieldLogger, observer Observer) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WhatsAppTimeout <= 0 {
		cfg.WhatsAppTimeout = 30 * time.Second
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Dispatcher{queue: q, cfg: cfg, log: log, observer: observer}
}

func (d *Dispatcher) timeoutFor(k Kind) time.Duration {
	if k == KindWhatsApp {
		return d.cfg.WhatsAppTimeout
	}
	return d.cfg.Timeout
}

// Failure renders the user-facing text for a task that could not complete.
func Failure(k Kind, reason string) string {
	return fmt.Sprintf("⚠️ Sorry, I couldn't complete that %s task: %s", k.Label(), reason)
}

// Run executes the dispatch for userID and always returns user-facing text.
func (d *Dispatcher) Run(ctx context.Context, userID string, disp Dispatch) string {
	entry := d.log.WithFields(logrus.Fields{"user_id": userID, "kind": disp.Kind})

	if !disp.Kind.Valid() {
		d.observe(disp.Kind, "unknown")
		entry.Warn("dispatch with unknown task kind")
		return Failure(disp.Kind, "unknown task type")
	}

	job := Job{
		ID:         uuid.NewString(),
		Kind:       disp.Kind,
		UserID:     userID,
		Args:       disp.Args,
		EnqueuedAt: time.Now().UTC(),
	}
	id, err := d.queue.Submit(ctx, job)
	if err != nil {
		d.observe(disp.Kind, "submit_error")
		entry.WithError(err).Error("task submit failed")
		return Failure(disp.Kind, "the task queue is unavailable")
	}
	entry = entry.WithField("job_id", id)

	res, err := d.queue.Await(ctx, id, d.timeoutFor(disp.Kind))
	switch {
	case errors.Is(err, ErrAwaitTimeout):
		d.observe(disp.Kind, "timeout")
		entry.Warn("task result timed out")
		return Failure(disp.Kind, "it took too long to finish")
	case err != nil:
		d.observe(disp.Kind, "error")
		entry.WithError(err).Error("awaiting task result failed")
		return Failure(disp.Kind, err.Error())
	case res.Error != "":
		d.observe(disp.Kind, "error")
		entry.WithField("reason", res.Error).Warn("task failed")
		return Failure(disp.Kind, res.Error)
	}

	d.observe(disp.Kind, "ok")
	return res.Output
}

func (d *Dispatcher) observe(k Kind, outcome string) {
	if d.observer != nil {
		d.observer.ObserveTask(string(k), outcome)
	}
}
