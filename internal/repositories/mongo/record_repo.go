package mongo

import (
	"context"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository interface {
	Insert(ctx context.Context, e *models.Event) error
	Recent(ctx context.Context, userID string, limit int64) ([]models.Event, error)
}

type ExpenseRepository interface {
	Insert(ctx context.Context, e *models.Expense) error
	Recent(ctx context.Context, userID string, limit int64) ([]models.Expense, error)
	// Summary groups a user's expenses by category, largest total first.
	Summary(ctx context.Context, userID string) ([]models.ExpenseSummary, error)
}

type WhatsAppRepository interface {
	Insert(ctx context.Context, t *models.WhatsAppTask) error
	SetStatus(ctx context.Context, id, status, errMsg string) error
	Recent(ctx context.Context, userID string, limit int64) ([]models.WhatsAppTask, error)
}

type MusicRepository interface {
	Insert(ctx context.Context, m *models.MusicHistory) error
	Recent(ctx context.Context, userID string, limit int64) ([]models.MusicHistory, error)
}

type PersonalizationLogRepository interface {
	Insert(ctx context.Context, l *models.PersonalizationLog) error
	Recent(ctx context.Context, userID string, limit int64) ([]models.PersonalizationLog, error)
}

type eventRepo struct{ col *mongo.Collection }

func NewEventRepo(db *mongo.Database) EventRepository {
	return &eventRepo{col: db.Collection("events")}
}

func (r *eventRepo) Insert(ctx context.Context, e *models.Event) error {
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return err
	}
	setID(res, &e.ID)
	return nil
}

func (r *eventRepo) Recent(ctx context.Context, userID string, limit int64) ([]models.Event, error) {
	var out []models.Event
	err := findRecent(ctx, r.col, userID, "created", limit, &out)
	return out, err
}

type expenseRepo struct{ col *mongo.Collection }

func NewExpenseRepo(db *mongo.Database) ExpenseRepository {
	return &expenseRepo{col: db.Collection("expenses")}
}

func (r *expenseRepo) Insert(ctx context.Context, e *models.Expense) error {
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return err
	}
	setID(res, &e.ID)
	return nil
}

func (r *expenseRepo) Recent(ctx context.Context, userID string, limit int64) ([]models.Expense, error) {
	var out []models.Expense
	err := findRecent(ctx, r.col, userID, "created", limit, &out)
	return out, err
}

func (r *expenseRepo) Summary(ctx context.Context, userID string) ([]models.ExpenseSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExpenseSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type whatsAppRepo struct{ col *mongo.Collection }

func NewWhatsAppRepo(db *mongo.Database) WhatsAppRepository {
	return &whatsAppRepo{col: db.Collection("whatsapp_tasks")}
}

func (r *whatsAppRepo) Insert(ctx context.Context, t *models.WhatsAppTask) error {
	if t.Created.IsZero() {
		t.Created = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	setID(res, &t.ID)
	return nil
}

func (r *whatsAppRepo) SetStatus(ctx context.Context, id, status, errMsg string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	set := bson.M{"status": status}
	if errMsg != "" {
		set["error"] = errMsg
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	return err
}

func (r *whatsAppRepo) Recent(ctx context.Context, userID string, limit int64) ([]models.WhatsAppTask, error) {
	var out []models.WhatsAppTask
	err := findRecent(ctx, r.col, userID, "created", limit, &out)
	return out, err
}

type musicRepo struct{ col *mongo.Collection }

func NewMusicRepo(db *mongo.Database) MusicRepository {
	return &musicRepo{col: db.Collection("music_history")}
}

func (r *musicRepo) Insert(ctx context.Context, m *models.MusicHistory) error {
	if m.PlayedAt.IsZero() {
		m.PlayedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	setID(res, &m.ID)
	return nil
}

func (r *musicRepo) Recent(ctx context.Context, userID string, limit int64) ([]models.MusicHistory, error) {
	var out []models.MusicHistory
	err := findRecent(ctx, r.col, userID, "played_at", limit, &out)
	return out, err
}

type personalizationLogRepo struct{ col *mongo.Collection }

func NewPersonalizationLogRepo(db *mongo.Database) PersonalizationLogRepository {
	return &personalizationLogRepo{col: db.Collection("personalization_logs")}
}

func (r *personalizationLogRepo) Insert(ctx context.Context, l *models.PersonalizationLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, l)
	if err != nil {
		return err
	}
	setID(res, &l.ID)
	return nil
}

func (r *personalizationLogRepo) Recent(ctx context.Context, userID string, limit int64) ([]models.PersonalizationLog, error) {
	var out []models.PersonalizationLog
	err := findRecent(ctx, r.col, userID, "timestamp", limit, &out)
	return out, err
}

func findRecent(ctx context.Context, col *mongo.Collection, userID, sortField string, limit int64, dst any) error {
	if limit <= 0 {
		limit = 10
	}
	cur, err := col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: sortField, Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, dst)
}
