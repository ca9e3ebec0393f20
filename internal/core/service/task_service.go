package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcc/task-manager-api/internal/api/metrics"
	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

// ActivityDispatcher abstracts the worker pool the task service enqueues
// audit events on.
type ActivityDispatcher interface {
	Enqueue(event ports.ActivityInput)
}

// TaskService implements the owner-scoped task use cases.
type TaskService struct {
	repo        ports.TaskRepository
	userRepo    ports.UserRepository
	projectRepo ports.ProjectRepository
	dispatcher  ActivityDispatcher
	log         zerolog.Logger
}

func NewTaskService(
	repo ports.TaskRepository,
	userRepo ports.UserRepository,
	projectRepo ports.ProjectRepository,
	dispatcher ActivityDispatcher,
	log zerolog.Logger,
) *TaskService {
	return &TaskService{
		repo:        repo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// Create creates a task owned by the calling user. When an idempotency key
// is provided and already seen for this owner, the previously created task
// is returned without side effects.
func (s *TaskService) Create(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	if input.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, input.OwnerID, input.IdempotencyKey)
		if err == nil && existing != nil {
			s.log.Info().
				Str("idempotency_key", input.IdempotencyKey).
				Str("task_id", existing.ID).
				Msg("idempotent replay")
			return existing, nil
		}
	}

	status := input.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	if !domain.ValidTaskStatus(status) {
		return nil, fmt.Errorf("create task: unknown status %q", status)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now().UTC()
	task := &domain.Task{
		Title:          input.Title,
		Description:    input.Description,
		Status:         status,
		Priority:       priority,
		DueDate:        input.DueDate,
		OwnerID:        input.OwnerID,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.resolveReferences(ctx, task, input.AssigneeID, input.ProjectID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", input.OwnerID).Msg("failed to create task")
		return nil, err
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(created.Priority)).Inc()
	s.emit(created.ID, domain.ActivityCreated, created.Status, input.Actor)
	s.log.Info().Str("task_id", created.ID).Str("owner_id", created.OwnerID).Msg("task created")
	return created, nil
}

// Get returns the task only when it belongs to ownerID; a foreign task
// reads as not found.
func (s *TaskService) Get(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	return s.repo.FindByID(ctx, id, ownerID)
}

func (s *TaskService) List(ctx context.Context, ownerID string, filter ports.TaskFilter) ([]domain.Task, error) {
	return s.repo.FindByOwner(ctx, ownerID, filter)
}

// Update replaces the mutable fields of a task owned by input.OwnerID.
func (s *TaskService) Update(ctx context.Context, id string, input ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id, input.OwnerID)
	if err != nil {
		return nil, err
	}

	if input.Status != "" && !domain.ValidTaskStatus(input.Status) {
		return nil, fmt.Errorf("update task: unknown status %q", input.Status)
	}

	task.Title = input.Title
	task.Description = input.Description
	if input.Status != "" {
		task.Status = input.Status
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	task.DueDate = input.DueDate
	task.UpdatedAt = time.Now().UTC()

	task.AssigneeID, task.AssigneeName = "", ""
	task.ProjectID, task.ProjectName = "", ""
	if err := s.resolveReferences(ctx, task, input.AssigneeID, input.ProjectID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return nil, err
	}

	s.emit(updated.ID, domain.ActivityUpdated, updated.Status, input.Actor)
	return updated, nil
}

// UpdateStatus moves an owned task to a new status.
func (s *TaskService) UpdateStatus(ctx context.Context, id, ownerID, actor string, status domain.TaskStatus) (*domain.Task, error) {
	if !domain.ValidTaskStatus(status) {
		return nil, fmt.Errorf("update status: unknown status %q", status)
	}

	task, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	task.Status = status
	task.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return nil, err
	}

	s.emit(updated.ID, domain.ActivityStatusChanged, status, actor)
	s.log.Info().Str("task_id", id).Str("status", string(status)).Msg("task status changed")
	return updated, nil
}

// Delete removes an owned task.
func (s *TaskService) Delete(ctx context.Context, id, ownerID, actor string) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	s.emit(id, domain.ActivityDeleted, "", actor)
	s.log.Info().Str("task_id", id).Str("owner_id", ownerID).Msg("task deleted")
	return nil
}

// Stats aggregates the owner's tasks by status.
func (s *TaskService) Stats(ctx context.Context, ownerID string) (*ports.TaskStats, error) {
	return s.repo.CountByStatus(ctx, ownerID)
}

// resolveReferences validates the optional assignee and project references
// and denormalizes their display names onto the task.
func (s *TaskService) resolveReferences(ctx context.Context, task *domain.Task, assigneeID, projectID string) error {
	if assigneeID != "" {
		assignee, err := s.userRepo.FindByID(ctx, assigneeID)
		if err != nil {
			return fmt.Errorf("resolve assignee: %w", err)
		}
		task.AssigneeID = assignee.ID
		task.AssigneeName = assignee.FullName()
	}
	if projectID != "" {
		project, err := s.projectRepo.FindByID(ctx, projectID)
		if err != nil {
			return fmt.Errorf("resolve project: %w", err)
		}
		task.ProjectID = project.ID
		task.ProjectName = project.Name
	}
	return nil
}

func (s *TaskService) emit(taskID, action string, status domain.TaskStatus, actor string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Enqueue(ports.ActivityInput{
		TaskID:    taskID,
		Action:    action,
		Status:    status,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	})
}
