package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

const collectionTaskActivity = "task_activity"

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	col *mongo.Collection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *mongo.Database) ports.ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionTaskActivity)}
}

// Insert persists an activity entry to the task_activity audit collection.
func (r *ActivityRepository) Insert(ctx context.Context, activity *domain.TaskActivity) error {
	doc := bson.M{
		"task_id":      activity.TaskID,
		"action":       activity.Action,
		"actor":        activity.Actor,
		"timestamp":    activity.Timestamp.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if activity.Status != "" {
		doc["status"] = string(activity.Status)
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// ListByTask returns a task's audit trail in chronological order.
func (r *ActivityRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"task_id": taskID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		TaskID    string    `bson:"task_id"`
		Action    string    `bson:"action"`
		Status    string    `bson:"status,omitempty"`
		Actor     string    `bson:"actor"`
		Timestamp time.Time `bson:"timestamp"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	entries := make([]domain.TaskActivity, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, domain.TaskActivity{
			TaskID:    d.TaskID,
			Action:    d.Action,
			Status:    domain.TaskStatus(d.Status),
			Actor:     d.Actor,
			Timestamp: d.Timestamp.UTC(),
		})
	}
	return entries, nil
}
