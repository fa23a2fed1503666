// Package tasks turns chat messages into background jobs: it classifies a message,
// extracts arguments, and maps each job kind to its handler.
package tasks

import (
	"strings"
	"time"
)

type Kind string

const (
	KindCalculator Kind = "calculator"
	KindEvent      Kind = "event"
	KindExpense    Kind = "expense"
	KindNews       Kind = "news"
	KindNotes      Kind = "notes"
	KindReminder   Kind = "reminder"
	KindSearch     Kind = "search"
	KindTranslate  Kind = "translate"
	KindWeather    Kind = "weather"
	KindWhatsApp   Kind = "whatsapp"
	KindMusic      Kind = "music"

	KindRetrieveNotes    Kind = "retrieve_notes"
	KindRetrieveReminder Kind = "retrieve_reminder"
	KindRetrieveExpense  Kind = "retrieve_expense"
	KindRetrieveEvent    Kind = "retrieve_event"

	// system jobs, never produced by Classify
	KindReminderTrigger Kind = "reminder_trigger"
	KindWhatsAppSend    Kind = "whatsapp_send"
)

var allKinds = []Kind{
	KindCalculator, KindEvent, KindExpense, KindNews, KindNotes, KindReminder,
	KindSearch, KindTranslate, KindWeather, KindWhatsApp, KindMusic,
	KindRetrieveNotes, KindRetrieveReminder, KindRetrieveExpense, KindRetrieveEvent,
	KindReminderTrigger, KindWhatsAppSend,
}

// AllKinds returns every job kind the worker pool can execute.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

func (k Kind) Valid() bool {
	for _, v := range allKinds {
		if v == k {
			return true
		}
	}
	return false
}

func (k Kind) IsRetrieval() bool { return strings.HasPrefix(string(k), "retrieve_") }

// Label is the human-facing name used in failure messages ("retrieve_notes" -> "notes").
func (k Kind) Label() string {
	switch k {
	case KindWhatsApp, KindWhatsAppSend:
		return "WhatsApp"
	case KindReminderTrigger:
		return "reminder"
	}
	return strings.TrimPrefix(string(k), "retrieve_")
}

func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Argument keys shared by the classifier and handlers.
const (
	ArgQuery    = "query"
	ArgRaw      = "raw"
	ArgAction   = "action"
	ArgUserID   = "user_id"
	ArgText     = "text"
	ArgTime     = "time"
	ArgName     = "name"
	ArgAmount   = "amount"
	ArgDesc     = "description"
	ArgCategory = "category"
	ArgExpr     = "expression"
	ArgLocation = "location"
	ArgTopic    = "topic"
	ArgTarget   = "target"
	ArgPhone    = "phone"
	ArgMessage  = "message"
	ArgDelay    = "delay_minutes"
	ArgTaskID   = "task_id"
	ArgReminder = "reminder_id"

	ActionCreate   = "create"
	ActionRetrieve = "retrieve"
)

// Dispatch is the classifier's verdict for one message.
type Dispatch struct {
	Kind Kind              `json:"kind"`
	Args map[string]string `json:"args"`
}

// Job is the unit carried by the worker queue.
type Job struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	UserID     string            `json:"user_id"`
	Args       map[string]string `json:"args"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

func (j Job) Arg(key string) string {
	if j.Args == nil {
		return ""
	}
	return j.Args[key]
}

// Result is what a worker publishes for an executed job.
type Result struct {
	JobID      string    `json:"job_id"`
	Kind       Kind      `json:"kind"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
