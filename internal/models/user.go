package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const GuestUserID = "guest"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	FirstSeen    time.Time          `bson:"first_seen" json:"first_seen"`
	LastSeen     time.Time          `bson:"last_seen" json:"last_seen"`
	MessageCount int64              `bson:"message_count" json:"message_count"`
}
