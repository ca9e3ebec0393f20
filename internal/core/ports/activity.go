package ports

import (
	"context"
	"time"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

// ActivityInput is the DTO enqueued by the task service and consumed by the
// activity workers.
type ActivityInput struct {
	TaskID    string
	Action    string
	Status    domain.TaskStatus
	Actor     string
	Timestamp time.Time
}

// ActivityService processes task activity events into the audit trail.
type ActivityService interface {
	Process(ctx context.Context, event ActivityInput) error
}

// ActivityRepository persists the task audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.TaskActivity) error
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskActivity, error)
}
