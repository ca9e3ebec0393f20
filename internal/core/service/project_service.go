package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

// ProjectService implements the project use cases. Role gating happens in
// the transport layer before these methods run.
type ProjectService struct {
	repo     ports.ProjectRepository
	userRepo ports.UserRepository
	log      zerolog.Logger
}

func NewProjectService(repo ports.ProjectRepository, userRepo ports.UserRepository, log zerolog.Logger) *ProjectService {
	return &ProjectService{repo: repo, userRepo: userRepo, log: log}
}

// Create records the calling user as the project owner.
func (s *ProjectService) Create(ctx context.Context, input ports.ProjectInput, ownerUsername string) (*domain.Project, error) {
	owner, err := s.userRepo.FindByUsername(ctx, ownerUsername)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	status := input.Status
	if status == "" {
		status = domain.ProjectStatusPlanning
	}
	if !domain.ValidProjectStatus(status) {
		return nil, fmt.Errorf("create project: unknown status %q", status)
	}

	now := time.Now().UTC()
	project := &domain.Project{
		Name:        input.Name,
		Description: input.Description,
		Status:      status,
		OwnerID:     owner.ID,
		OwnerName:   owner.FullName(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("project_id", created.ID).Str("owner", ownerUsername).Msg("project created")
	return created, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.repo.FindAll(ctx)
}

func (s *ProjectService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

func (s *ProjectService) Update(ctx context.Context, id string, input ports.ProjectInput) (*domain.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != "" && !domain.ValidProjectStatus(input.Status) {
		return nil, fmt.Errorf("update project: unknown status %q", input.Status)
	}

	project.Name = input.Name
	project.Description = input.Description
	if input.Status != "" {
		project.Status = input.Status
	}
	project.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, project)
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("project_id", id).Msg("project deleted")
	return nil
}
