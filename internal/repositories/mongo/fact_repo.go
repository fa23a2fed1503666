package mongo

import (
	"context"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FactRepository interface {
	Insert(ctx context.Context, f *models.Fact) error
	Recent(ctx context.Context, userID string, limit int64) ([]models.Fact, error)
	RecentByType(ctx context.Context, userID string, typ models.FactType, limit int64) ([]models.Fact, error)
}

type factRepo struct {
	col *mongo.Collection
}

func NewFactRepo(db *mongo.Database) FactRepository {
	return &factRepo{col: db.Collection("notes")}
}

func (r *factRepo) Insert(ctx context.Context, f *models.Fact) error {
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, f)
	if err != nil {
		return err
	}
	setID(res, &f.ID)
	return nil
}

func (r *factRepo) Recent(ctx context.Context, userID string, limit int64) ([]models.Fact, error) {
	return r.find(ctx, bson.M{"user_id": userID}, limit)
}

func (r *factRepo) RecentByType(ctx context.Context, userID string, typ models.FactType, limit int64) ([]models.Fact, error) {
	return r.find(ctx, bson.M{"user_id": userID, "type": typ}, limit)
}

func (r *factRepo) find(ctx context.Context, filter bson.M, limit int64) ([]models.Fact, error) {
	if limit <= 0 {
		limit = 5
	}
	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Fact
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
