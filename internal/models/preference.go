package models

import "time"

const (
	DefaultTone      = "helpful"
	DefaultFormality = "neutral"
	DefaultLanguage  = "en"
	DefaultPronouns  = "they/them"
)

type Preferences struct {
	Tone      string         `bson:"tone,omitempty" json:"tone,omitempty"`
	Formality string         `bson:"formality,omitempty" json:"formality,omitempty"`
	Language  string         `bson:"language,omitempty" json:"language,omitempty"`
	Pronouns  string         `bson:"pronouns,omitempty" json:"pronouns,omitempty"`
	Nickname  string         `bson:"nickname,omitempty" json:"nickname,omitempty"`
	Topics    map[string]int `bson:"topics,omitempty" json:"topics,omitempty"`
}

// WithDefaults fills empty fields without touching the receiver.
func (p Preferences) WithDefaults() Preferences {
	if p.Tone == "" {
		p.Tone = DefaultTone
	}
	if p.Formality == "" {
		p.Formality = DefaultFormality
	}
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
	if p.Pronouns == "" {
		p.Pronouns = DefaultPronouns
	}
	return p
}

// PreferenceDocument is the single per-user row in "preferences".
type PreferenceDocument struct {
	UserID      string      `bson:"user_id" json:"user_id"`
	Preferences Preferences `bson:"preferences" json:"preferences"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}
