package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderScheduled ReminderStatus = "scheduled"
	ReminderTriggered ReminderStatus = "triggered"
	ReminderFailed    ReminderStatus = "failed"
)

type ReminderRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Text          string             `bson:"text" json:"text"`
	TimeExpr      string             `bson:"time" json:"time"`
	ScheduledTime time.Time          `bson:"scheduled_time" json:"scheduled_time"`
	JobID         string             `bson:"job_id,omitempty" json:"job_id,omitempty"`
	Status        ReminderStatus     `bson:"status" json:"status"`
	IsTriggered   bool               `bson:"is_triggered" json:"is_triggered"`
	TriggeredAt   *time.Time         `bson:"triggered_at,omitempty" json:"triggered_at,omitempty"`
	Created       time.Time          `bson:"created" json:"created"`
}
