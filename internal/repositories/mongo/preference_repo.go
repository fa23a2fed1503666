package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*models.PreferenceDocument, error)
	// Upsert sets only the non-empty fields of p.
	Upsert(ctx context.Context, userID string, p models.Preferences) error
	IncrementTopic(ctx context.Context, userID, topic string) error
}

type preferenceRepo struct {
	col *mongo.Collection
}

func NewPreferenceRepo(db *mongo.Database) PreferenceRepository {
	return &preferenceRepo{col: db.Collection("preferences")}
}

func (r *preferenceRepo) Get(ctx context.Context, userID string) (*models.PreferenceDocument, error) {
	var doc models.PreferenceDocument
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &doc, err
}

func (r *preferenceRepo) Upsert(ctx context.Context, userID string, p models.Preferences) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	for field, val := range map[string]string{
		"tone":      p.Tone,
		"formality": p.Formality,
		"language":  p.Language,
		"pronouns":  p.Pronouns,
		"nickname":  p.Nickname,
	} {
		if val != "" {
			set["preferences."+field] = val
		}
	}
	for topic, n := range p.Topics {
		set["preferences.topics."+topic] = n
	}

	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *preferenceRepo) IncrementTopic(ctx context.Context, userID, topic string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc": bson.M{"preferences.topics." + topic: 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
