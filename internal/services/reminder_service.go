package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/models"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/tasks"
	"github.com/yoockh/yooassist/internal/utils"
)

const (
	TriggerScheduled = "scheduled"
	TriggerSweep     = "sweep"

	upcomingLimit = 20
	sweepBatch    = 100
)

type ReminderObserver interface {
	ObserveReminderTrigger(path string)
}

type ReminderService interface {
	Create(ctx context.Context, userID, text, timeExpr string) (*models.ReminderRecord, error)
	// Trigger fires the reminder at most once; it reports whether this call did.
	Trigger(ctx context.Context, id, path string) (bool, error)
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
	Upcoming(ctx context.Context, userID string) ([]models.ReminderRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

var _ tasks.ReminderScheduler = (ReminderService)(nil)

type reminderService struct {
	reminders mongorepo.ReminderRepository
	queue     tasks.DelayedSubmitter
	notifier  tasks.Notifier
	observer  ReminderObserver
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewReminderService(reminders mongorepo.ReminderRepository, queue tasks.DelayedSubmitter, notifier tasks.Notifier, observer ReminderObserver, log logrus.FieldLogger) ReminderService {
	return &reminderService{
		reminders: reminders,
		queue:     queue,
		notifier:  notifier,
		observer:  observer,
		log:       orQuiet(log),
		now:       time.Now,
	}
}

func (s *reminderService) Create(ctx context.Context, userID, text, timeExpr string) (*models.ReminderRecord, error) {
	const op = "ReminderService.Create"

	text = strings.TrimSpace(text)
	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if text == "" {
		text = tasks.DefaultReminderText
	}

	now := s.now()
	rec := &models.ReminderRecord{
		UserID:        userID,
		Text:          text,
		TimeExpr:      timeExpr,
		ScheduledTime: tasks.ParseReminderTime(timeExpr, now).UTC(),
		Status:        models.ReminderPending,
		Created:       now.UTC(),
	}
	if err := s.reminders.Insert(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save reminder", err)
	}

	id := rec.ID.Hex()
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "reminder_id": id})

	delay := rec.ScheduledTime.Sub(now)
	jobID, err := s.queue.SubmitAfter(ctx, tasks.Job{
		Kind:   tasks.KindReminderTrigger,
		UserID: userID,
		Args:   map[string]string{tasks.ArgReminder: id},
	}, delay)
	if err != nil {
		// the sweep still picks it up once overdue
		log.WithError(err).Warn("reminder job not queued")
		rec.Status = models.ReminderFailed
		if serr := s.reminders.SetScheduled(ctx, id, "", models.ReminderFailed); serr != nil {
			log.WithError(serr).Warn("reminder status not updated")
		}
		return rec, nil
	}

	rec.JobID = jobID
	rec.Status = models.ReminderScheduled
	if err := s.reminders.SetScheduled(ctx, id, jobID, models.ReminderScheduled); err != nil {
		log.WithError(err).Warn("reminder status not updated")
	}
	return rec, nil
}

func (s *reminderService) Trigger(ctx context.Context, id, path string) (bool, error) {
	const op = "ReminderService.Trigger"

	if id == "" {
		return false, utils.E(utils.CodeInvalidArgument, op, "reminder id is required", nil)
	}
	rec, err := s.reminders.Get(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		// deleted by the user before it fired
		return false, nil
	}
	if err != nil {
		return false, utils.E(utils.CodeInternal, op, "failed to load reminder", err)
	}

	won, err := s.reminders.MarkTriggered(ctx, id, s.now().UTC())
	if err != nil {
		return false, utils.E(utils.CodeInternal, op, "failed to mark reminder", err)
	}
	if !won {
		return false, nil
	}

	if s.observer != nil {
		s.observer.ObserveReminderTrigger(path)
	}
	log := s.log.WithFields(logrus.Fields{"user_id": rec.UserID, "reminder_id": id, "path": path})
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, rec.UserID, "⏰ Reminder: "+rec.Text); err != nil {
			log.WithError(err).Warn("reminder notification not delivered")
		}
	}
	log.Info("reminder triggered")
	return true, nil
}

func (s *reminderService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	const op = "ReminderService.SweepOverdue"

	due, err := s.reminders.Overdue(ctx, now.UTC(), sweepBatch)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to list overdue reminders", err)
	}
	fired := 0
	for _, r := range due {
		ok, err := s.Trigger(ctx, r.ID.Hex(), TriggerSweep)
		if err != nil {
			s.log.WithError(err).WithField("reminder_id", r.ID.Hex()).Warn("sweep trigger failed")
			continue
		}
		if ok {
			fired++
		}
	}
	return fired, nil
}

func (s *reminderService) Upcoming(ctx context.Context, userID string) ([]models.ReminderRecord, error) {
	const op = "ReminderService.Upcoming"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.reminders.Upcoming(ctx, userID, upcomingLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reminders", err)
	}
	return out, nil
}

func (s *reminderService) Delete(ctx context.Context, userID, id string) error {
	const op = "ReminderService.Delete"

	if userID == "" || id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and id are required", nil)
	}
	err := s.reminders.Delete(ctx, userID, id)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, "reminder not found", err)
	}
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete reminder", err)
	}
	return nil
}
