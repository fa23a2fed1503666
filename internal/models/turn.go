package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationTurn is one entry of the short-term session buffer.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkingContext is the transient per-user conversation context kept in Redis.
type WorkingContext struct {
	Topic       string    `json:"topic"`
	LastMessage string    `json:"last_message"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserState tracks what the assistant last did for a user.
type UserState struct {
	LastTask   string    `json:"last_task,omitempty"`
	LastIntent string    `json:"last_intent,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
