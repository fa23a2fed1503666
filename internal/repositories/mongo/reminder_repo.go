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

type ReminderRepository interface {
	Insert(ctx context.Context, r *models.ReminderRecord) error
	Get(ctx context.Context, id string) (*models.ReminderRecord, error)
	SetScheduled(ctx context.Context, id, jobID string, status models.ReminderStatus) error
	// MarkTriggered flips is_triggered false->true. It reports false when another caller won.
	MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error)
	Overdue(ctx context.Context, now time.Time, limit int64) ([]models.ReminderRecord, error)
	Upcoming(ctx context.Context, userID string, limit int64) ([]models.ReminderRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

type reminderRepo struct {
	col *mongo.Collection
}

func NewReminderRepo(db *mongo.Database) ReminderRepository {
	return &reminderRepo{col: db.Collection("reminders")}
}

func (r *reminderRepo) Insert(ctx context.Context, rec *models.ReminderRecord) error {
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, rec)
	if err != nil {
		return err
	}
	setID(res, &rec.ID)
	return nil
}

func (r *reminderRepo) Get(ctx context.Context, id string) (*models.ReminderRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var rec models.ReminderRecord
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}

func (r *reminderRepo) SetScheduled(ctx context.Context, id, jobID string, status models.ReminderStatus) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	// never downgrade a record the sweep already fired
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "is_triggered": false},
		bson.M{"$set": bson.M{"job_id": jobID, "status": status}},
	)
	return err
}

func (r *reminderRepo) MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "is_triggered": false},
		bson.M{"$set": bson.M{
			"is_triggered": true,
			"status":       models.ReminderTriggered,
			"triggered_at": at.UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *reminderRepo) Overdue(ctx context.Context, now time.Time, limit int64) ([]models.ReminderRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.find(ctx,
		bson.M{"is_triggered": false, "scheduled_time": bson.M{"$lte": now.UTC()}},
		options.Find().SetSort(bson.D{{Key: "scheduled_time", Value: 1}}).SetLimit(limit),
	)
}

func (r *reminderRepo) Upcoming(ctx context.Context, userID string, limit int64) ([]models.ReminderRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.find(ctx,
		bson.M{"user_id": userID, "is_triggered": false},
		options.Find().SetSort(bson.D{{Key: "scheduled_time", Value: 1}}).SetLimit(limit),
	)
}

func (r *reminderRepo) Delete(ctx context.Context, userID, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *reminderRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ReminderRecord, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ReminderRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
