package mongo

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yoockh/yooassist/internal/utils"
)

func setID(res *mongo.InsertOneResult, dst *primitive.ObjectID) {
	if res == nil {
		return
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		*dst = oid
	}
}

// parseID maps a malformed hex id to ErrNotFound; callers never see driver parse errors.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.ErrNotFound
	}
	return oid, nil
}
