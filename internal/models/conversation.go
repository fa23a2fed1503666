package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ConversationLog is the durable archive row for one chat turn.
type ConversationLog struct {
	ID          string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      string          `gorm:"column:user_id;type:text;index" json:"user_id"`
	SessionKey  string          `gorm:"column:session_key;type:text;index" json:"session_key"`
	Role        string          `gorm:"column:role;type:text" json:"role"`
	Content     string          `gorm:"column:content;type:text" json:"content"`
	Provenance  string          `gorm:"column:provenance;type:text" json:"provenance,omitempty"`
	Embedding   pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`
	Suggestions pq.StringArray  `gorm:"column:suggestions;type:text[]" json:"suggestions,omitempty"`
	Timestamp   time.Time       `gorm:"column:timestamp;index" json:"timestamp"`
	Metadata    datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (ConversationLog) TableName() string { return "conversation_logs" }

// TurnEvent is published after each answered message and archived asynchronously.
type TurnEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	SessionKey  string    `json:"session_key"`
	UserText    string    `json:"user_text"`
	Reply       string    `json:"reply"`
	Provenance  string    `json:"provenance"`
	Topic       string    `json:"topic,omitempty"`
	TaskKind    string    `json:"task_kind,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
