package mongo

import (
	"context"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SemanticRepository interface {
	Insert(ctx context.Context, e *models.SemanticMemoryEntry) error
	// Latest returns at most limit entries, newest first.
	Latest(ctx context.Context, userID string, limit int64) ([]models.SemanticMemoryEntry, error)
}

type semanticRepo struct {
	col *mongo.Collection
}

func NewSemanticRepo(db *mongo.Database) SemanticRepository {
	return &semanticRepo{col: db.Collection("semantic_memory")}
}

func (r *semanticRepo) Insert(ctx context.Context, e *models.SemanticMemoryEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return err
	}
	setID(res, &e.ID)
	return nil
}

func (r *semanticRepo) Latest(ctx context.Context, userID string, limit int64) ([]models.SemanticMemoryEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SemanticMemoryEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
