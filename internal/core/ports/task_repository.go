package ports

import (
	"context"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

// TaskFilter narrows owner-scoped task listings. Zero values mean "no filter".
type TaskFilter struct {
	Status   domain.TaskStatus
	Priority domain.Priority
	Search   string
}

// TaskStats aggregates a user's tasks by status.
type TaskStats struct {
	Total      int64
	Todo       int64
	InProgress int64
	Done       int64
}

// TaskRepository persists tasks. Every lookup and mutation is scoped by the
// owning user id; a task belonging to someone else reads as not found.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id, ownerID string) (*domain.Task, error)
	FindByOwner(ctx context.Context, ownerID string, filter TaskFilter) ([]domain.Task, error)
	FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	CountByStatus(ctx context.Context, ownerID string) (*TaskStats, error)
}
