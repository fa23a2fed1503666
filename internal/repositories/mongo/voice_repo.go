package mongo

import (
	"context"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type VoiceClipRepository interface {
	Insert(ctx context.Context, v *models.VoiceClip) error
	UpdateResult(ctx context.Context, id, transcript string, confidence float64, status, response string) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.VoiceClip, error)
}

type voiceClipRepo struct {
	col *mongo.Collection
}

func NewVoiceClipRepo(db *mongo.Database) VoiceClipRepository {
	return &voiceClipRepo{col: db.Collection("voice_clips")}
}

func (r *voiceClipRepo) Insert(ctx context.Context, v *models.VoiceClip) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, v)
	if err != nil {
		return err
	}
	setID(res, &v.ID)
	return nil
}

func (r *voiceClipRepo) UpdateResult(ctx context.Context, id, transcript string, confidence float64, status, response string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"transcript": transcript,
			"confidence": confidence,
			"status":     status,
			"response":   response,
		}},
	)
	return err
}

func (r *voiceClipRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.VoiceClip, error) {
	var out []models.VoiceClip
	err := findRecent(ctx, r.col, userID, "timestamp", limit, &out)
	return out, err
}
