package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoiceClip records one uploaded utterance. Documents expire through the expires_at TTL index.
type VoiceClip struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	ObjectPath string             `bson:"object_path,omitempty" json:"object_path,omitempty"`
	Language   string             `bson:"language" json:"language"`
	Transcript string             `bson:"transcript,omitempty" json:"transcript,omitempty"`
	Confidence float64            `bson:"confidence,omitempty" json:"confidence,omitempty"`
	Status     string             `bson:"status" json:"status"` // pending|done|failed
	Response   string             `bson:"response,omitempty" json:"response,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
	ExpiresAt  time.Time          `bson:"expires_at" json:"expires_at"`
}
