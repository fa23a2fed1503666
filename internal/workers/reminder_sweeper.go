package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// ReminderSweeper fires reminders whose scheduled job never ran.
type ReminderSweeper struct {
	sweeper  OverdueSweeper
	interval time.Duration
	log      logrus.FieldLogger
	stopChan chan struct{}
	done     chan struct{}
}

func NewReminderSweeper(s OverdueSweeper, interval time.Duration, log logrus.FieldLogger) *ReminderSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ReminderSweeper{
		sweeper:  s,
		interval: interval,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start sweeps once immediately, then every interval until Stop or ctx is done.
func (r *ReminderSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer close(r.done)
		defer ticker.Stop()
		r.sweep(ctx)
		for {
			select {
			case <-ticker.C:
				r.sweep(ctx)
			case <-r.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *ReminderSweeper) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
	<-r.done
}

func (r *ReminderSweeper) sweep(ctx context.Context) {
	n, err := r.sweeper.SweepOverdue(ctx, time.Now())
	if err != nil {
		r.log.WithError(err).Warn("reminder sweep failed")
		return
	}
	if n > 0 {
		r.log.WithField("triggered", n).Info("reminder sweep fired overdue reminders")
	}
}
