package ports

import (
	"context"
	"time"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

// CreateTaskInput carries all data needed to create a task for the
// authenticated owner.
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         domain.TaskStatus
	Priority       domain.Priority
	DueDate        *time.Time
	AssigneeID     string
	ProjectID      string
	OwnerID        string
	Actor          string
	IdempotencyKey string
}

// UpdateTaskInput carries the mutable task fields.
type UpdateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.Priority
	DueDate     *time.Time
	AssigneeID  string
	ProjectID   string
	OwnerID     string
	Actor       string
}

// TaskService defines the owner-scoped task use cases.
type TaskService interface {
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, id, ownerID string) (*domain.Task, error)
	List(ctx context.Context, ownerID string, filter TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, id string, input UpdateTaskInput) (*domain.Task, error)
	UpdateStatus(ctx context.Context, id, ownerID, actor string, status domain.TaskStatus) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID, actor string) error
	Stats(ctx context.Context, ownerID string) (*TaskStats, error)
}
