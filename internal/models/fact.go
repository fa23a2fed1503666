package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FactType string

const (
	FactTypeFact     FactType = "fact"
	FactTypeNote     FactType = "note"
	FactTypeActivity FactType = "activity"
)

// Fact lives in the "notes" collection. Facts are never updated after insert.
type Fact struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Type        FactType           `bson:"type" json:"type"`
	Key         string             `bson:"key,omitempty" json:"key,omitempty"`
	Value       string             `bson:"value,omitempty" json:"value,omitempty"`
	Source      string             `bson:"source,omitempty" json:"source,omitempty"` // user|assistant|task
	Confidence  float64            `bson:"confidence" json:"confidence"`
	DerivedText string             `bson:"text" json:"text"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

// SemanticMemoryEntry is a (text, embedding) pair used for similarity recall.
type SemanticMemoryEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	Embedding []float32          `bson:"embedding" json:"-"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ScoredMemory is a semantic entry with its cosine similarity to a query.
type ScoredMemory struct {
	Entry SemanticMemoryEntry `json:"entry"`
	Score float64             `json:"score"`
}
