package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return errors.New("mongo database is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	byUserTS := func(tsField string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: tsField, Value: -1}},
			Options: options.Index().SetName("by_user_" + tsField),
		}
	}

	specs := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("uniq_user_id").SetUnique(true),
			},
		},
		"preferences": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("uniq_user_id").SetUnique(true),
			},
		},
		"notes": {
			byUserTS("timestamp"),
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "type", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("by_user_type_ts"),
			},
		},
		"semantic_memory":      {byUserTS("timestamp")},
		"personalization_logs": {byUserTS("timestamp")},
		"events":               {byUserTS("created")},
		"expenses":             {byUserTS("created")},
		"whatsapp_tasks":       {byUserTS("created")},
		"music_history":        {byUserTS("played_at")},
		"reminders": {
			byUserTS("scheduled_time"),
			// overdue sweep
			{
				Keys:    bson.D{{Key: "is_triggered", Value: 1}, {Key: "scheduled_time", Value: 1}},
				Options: options.Index().SetName("by_triggered_scheduled"),
			},
		},
		"voice_clips": {
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
			},
			byUserTS("timestamp"),
		},
	}

	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
