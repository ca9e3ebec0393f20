package ports

import (
	"context"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

// ProjectRepository persists projects. Projects are visible to every
// authenticated user; mutations are role-gated in the transport layer.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	FindAll(ctx context.Context) ([]domain.Project, error)
	FindByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
}
