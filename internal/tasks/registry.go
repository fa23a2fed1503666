package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/providers/external"
	repo "github.com/yoockh/yooassist/internal/repositories/mongo"
)

// Handler executes one job and returns the text shown to the user.
type Handler func(ctx context.Context, job Job) (string, error)

type ReminderScheduler interface {
	Create(ctx context.Context, userID, text, timeExpr string) (*models.ReminderRecord, error)
	Upcoming(ctx context.Context, userID string) ([]models.ReminderRecord, error)
	Trigger(ctx context.Context, id, path string) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

type WeatherProvider interface {
	Current(ctx context.Context, location string) (*external.Weather, error)
}

type NewsProvider interface {
	Headlines(ctx context.Context, topic string, limit int) ([]external.Headline, error)
}

type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]external.SearchResult, error)
}

type Translator interface {
	Translate(ctx context.Context, text, target string) (*external.Translation, error)
}

type MusicFinder interface {
	FindVideo(ctx context.Context, query string) (*external.Video, error)
}

type MessageSender interface {
	Send(ctx context.Context, phone, message string) error
}

// DelayedSubmitter schedules a job to run later.
type DelayedSubmitter interface {
	SubmitAfter(ctx context.Context, job Job, delay time.Duration) (string, error)
}

// Deps are the collaborators task handlers need. Nil providers mean "not configured".
type Deps struct {
	Notes     repo.FactRepository
	Events    repo.EventRepository
	Expenses  repo.ExpenseRepository
	WhatsApp  repo.WhatsAppRepository
	Music     repo.MusicRepository
	Reminders ReminderScheduler
	Notifier  Notifier

	Weather   WeatherProvider
	News      NewsProvider
	Search    SearchProvider
	Translate Translator
	YouTube   MusicFinder
	Sender    MessageSender

	Delayed DelayedSubmitter

	Log logrus.FieldLogger
	Now func() time.Time
}

// Registry maps every Kind to its handler. It is built once and read-only afterwards.
type Registry struct {
	handlers map[Kind]Handler
	log      logrus.FieldLogger
}

func NewRegistry(d Deps) *Registry {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Log = l
	}
	h := &handlers{d: d}
	return &Registry{
		log: d.Log,
		handlers: map[Kind]Handler{
			KindCalculator:       h.calculator,
			KindEvent:            h.event,
			KindExpense:          h.expense,
			KindNews:             h.news,
			KindNotes:            h.notes,
			KindReminder:         h.reminder,
			KindSearch:           h.search,
			KindTranslate:        h.translate,
			KindWeather:          h.weather,
			KindWhatsApp:         h.whatsapp,
			KindMusic:            h.music,
			KindRetrieveNotes:    h.retrieveNotes,
			KindRetrieveReminder: h.retrieveReminders,
			KindRetrieveExpense:  h.retrieveExpenses,
			KindRetrieveEvent:    h.retrieveEvents,
			KindReminderTrigger:  h.reminderTrigger,
			KindWhatsAppSend:     h.whatsappSend,
		},
	}
}

func (r *Registry) Handler(k Kind) (Handler, bool) {
	h, ok := r.handlers[k]
	return h, ok
}

// Execute runs the handler for job.Kind. A panicking handler is reported as an error.
func (r *Registry) Execute(ctx context.Context, job Job) (out string, err error) {
	h, ok := r.handlers[job.Kind]
	if !ok {
		return "", fmt.Errorf("unknown task kind %q", job.Kind)
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithFields(logrus.Fields{
				"job_id": job.ID,
				"kind":   job.Kind,
				"panic":  rec,
				"stack":  string(debug.Stack()),
			}).Error("task handler panicked")
			out, err = "", fmt.Errorf("internal error in %s task", job.Kind.Label())
		}
	}()
	return h(ctx, job)
}
