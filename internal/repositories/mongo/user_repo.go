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

type UserRepository interface {
	// Touch creates the user on first contact and bumps last_seen/message_count.
	Touch(ctx context.Context, userID string, at time.Time) error
	Get(ctx context.Context, userID string) (*models.User, error)
}

type userRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepository {
	return &userRepo{col: db.Collection("users")}
}

func (r *userRepo) Touch(ctx context.Context, userID string, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$setOnInsert": bson.M{"first_seen": at.UTC()},
			"$set":         bson.M{"last_seen": at.UTC()},
			"$inc":         bson.M{"message_count": 1},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *userRepo) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}
