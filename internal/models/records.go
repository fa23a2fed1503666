package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Event struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  string             `bson:"user_id" json:"user_id"`
	Name    string             `bson:"name" json:"name"`
	Time    string             `bson:"time" json:"time"`
	Created time.Time          `bson:"created" json:"created"`
}

type Expense struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Created     time.Time          `bson:"created" json:"created"`
}

// ExpenseSummary is the per-category aggregate returned for spending queries.
type ExpenseSummary struct {
	Category string  `bson:"_id" json:"category"`
	Total    float64 `bson:"total" json:"total"`
	Count    int     `bson:"count" json:"count"`
}

type WhatsAppTask struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	Phone        string             `bson:"phone" json:"phone"`
	Message      string             `bson:"message" json:"message"`
	DelayMinutes int                `bson:"delay_minutes" json:"delay_minutes"`
	Status       string             `bson:"status" json:"status"` // scheduled|sent|failed
	ScheduledFor time.Time          `bson:"scheduled_for" json:"scheduled_for"`
	Error        string             `bson:"error,omitempty" json:"error,omitempty"`
	Created      time.Time          `bson:"created" json:"created"`
}

type MusicHistory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	URL         string             `bson:"url" json:"url"`
	Duration    string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Channel     string             `bson:"channel,omitempty" json:"channel,omitempty"`
	SearchQuery string             `bson:"search_query" json:"search_query"`
	PlayedAt    time.Time          `bson:"played_at" json:"played_at"`
}

type PersonalizationLog struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"user_id" json:"user_id"`
	Message            string             `bson:"message" json:"message"`
	Response           string             `bson:"response" json:"response"`
	Topic              string             `bson:"topic" json:"topic"`
	PreferencesApplied Preferences        `bson:"preferences_applied" json:"preferences_applied"`
	Provenance         string             `bson:"provenance,omitempty" json:"provenance,omitempty"`
	Timestamp          time.Time          `bson:"timestamp" json:"timestamp"`
}
