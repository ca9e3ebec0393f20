package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tcc/task-manager-api/internal/api/middleware"
	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

type stubTaskService struct {
	createFn func(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error)
	getFn    func(ctx context.Context, id, ownerID string) (*domain.Task, error)
	listFn   func(ctx context.Context, ownerID string, filter ports.TaskFilter) ([]domain.Task, error)
}

func (s *stubTaskService) Create(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	return s.createFn(ctx, input)
}

func (s *stubTaskService) Get(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	return s.getFn(ctx, id, ownerID)
}

func (s *stubTaskService) List(ctx context.Context, ownerID string, filter ports.TaskFilter) ([]domain.Task, error) {
	return s.listFn(ctx, ownerID, filter)
}

func (s *stubTaskService) Update(ctx context.Context, id string, input ports.UpdateTaskInput) (*domain.Task, error) {
	panic("not used")
}

func (s *stubTaskService) UpdateStatus(ctx context.Context, id, ownerID, actor string, status domain.TaskStatus) (*domain.Task, error) {
	panic("not used")
}

func (s *stubTaskService) Delete(ctx context.Context, id, ownerID, actor string) error {
	panic("not used")
}

func (s *stubTaskService) Stats(ctx context.Context, ownerID string) (*ports.TaskStats, error) {
	panic("not used")
}

func authenticatedContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newTestContext(t, method, path, body)
	c.Set(middleware.CtxUsername, "alice")
	c.Set(middleware.CtxRole, domain.RoleUser)
	c.Set(middleware.CtxUserID, "u-1")
	c.Set(middleware.CtxEmail, "alice@example.com")
	return c, rec
}

func TestTaskHandler_Create_Success(t *testing.T) {
	svc := &stubTaskService{
		createFn: func(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
			if input.OwnerID != "u-1" || input.Actor != "alice" {
				t.Fatalf("identity not propagated: %+v", input)
			}
			if input.IdempotencyKey != "key-123" {
				t.Fatalf("idempotency key not propagated: %q", input.IdempotencyKey)
			}
			return &domain.Task{
				ID:       "t-1",
				Title:    input.Title,
				Status:   domain.TaskStatusTodo,
				Priority: domain.PriorityMedium,
				OwnerID:  input.OwnerID,
			}, nil
		},
	}
	h := NewTaskHandler(svc, nil)

	c, rec := authenticatedContext(t, http.MethodPost, "/v1/tasks", `{"title":"Write report"}`)
	c.Request().Header.Set(idempotencyHeader, "key-123")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var task domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if task.ID != "t-1" || task.Title != "Write report" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestTaskHandler_Create_MissingTitle(t *testing.T) {
	svc := &stubTaskService{
		createFn: func(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewTaskHandler(svc, nil)

	c, _ := authenticatedContext(t, http.MethodPost, "/v1/tasks", `{"description":"no title"}`)
	err := h.Create(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestTaskHandler_MissingClaims(t *testing.T) {
	svc := &stubTaskService{
		listFn: func(ctx context.Context, ownerID string, filter ports.TaskFilter) ([]domain.Task, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewTaskHandler(svc, nil)

	// No identity keys set: the middleware never ran.
	c, _ := newTestContext(t, http.MethodGet, "/v1/tasks", "")
	err := h.List(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestTaskHandler_List_Filters(t *testing.T) {
	svc := &stubTaskService{
		listFn: func(ctx context.Context, ownerID string, filter ports.TaskFilter) ([]domain.Task, error) {
			if ownerID != "u-1" {
				t.Fatalf("wrong owner: %q", ownerID)
			}
			if filter.Status != domain.TaskStatusDone || filter.Priority != domain.PriorityHigh || filter.Search != "report" {
				t.Fatalf("filters not propagated: %+v", filter)
			}
			return []domain.Task{{ID: "t-1"}}, nil
		},
	}
	h := NewTaskHandler(svc, nil)

	c, rec := authenticatedContext(t, http.MethodGet, "/v1/tasks?status=done&priority=high&search=report", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
