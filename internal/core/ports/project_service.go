package ports

import (
	"context"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

// ProjectInput carries the writable project fields.
type ProjectInput struct {
	Name        string
	Description string
	Status      domain.ProjectStatus
}

// ProjectService defines the project use cases. Create records the calling
// user as owner; role checks happen before the service is reached.
type ProjectService interface {
	Create(ctx context.Context, input ProjectInput, ownerUsername string) (*domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	Update(ctx context.Context, id string, input ProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
}
