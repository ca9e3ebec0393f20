package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

// idempotencyHeader lets clients retry task creation safely. Replays with the
// same key return the originally created task.
const idempotencyHeader = "Idempotency-Key"

type TaskHandler struct {
	taskService  ports.TaskService
	activityRepo ports.ActivityRepository
}

func NewTaskHandler(taskService ports.TaskService, activityRepo ports.ActivityRepository) *TaskHandler {
	return &TaskHandler{taskService: taskService, activityRepo: activityRepo}
}

// List returns the caller's tasks, optionally filtered.
//
// @Summary      List my tasks
// @Tags         tasks
// @Produce      json
// @Param        status    query     string  false  "Filter by status"    Enums(todo, in_progress, done)
// @Param        priority  query     string  false  "Filter by priority"  Enums(low, medium, high)
// @Param        search    query     string  false  "Search in title and description"
// @Success      200       {array}   domain.Task
// @Failure      401       {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	filter := ports.TaskFilter{
		Status:   domain.TaskStatus(c.QueryParam("status")),
		Priority: domain.Priority(c.QueryParam("priority")),
		Search:   c.QueryParam("search"),
	}
	tasks, err := h.taskService.List(c.Request().Context(), id.UserID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get returns one of the caller's tasks by id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(c.Request().Context(), c.Param("id"), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Create creates a task owned by the caller. An Idempotency-Key header makes
// the request safely retryable.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string             false  "Idempotency key for safe retries"
// @Param        body             body      createTaskRequest  true   "Task details"
// @Success      201              {object}  domain.Task
// @Failure      400              {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Create(c.Request().Context(), ports.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TaskStatus(req.Status),
		Priority:       domain.Priority(req.Priority),
		DueDate:        req.DueDate,
		AssigneeID:     req.AssigneeID,
		ProjectID:      req.ProjectID,
		OwnerID:        id.UserID,
		Actor:          id.Username,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Update replaces the mutable fields of one of the caller's tasks.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Task details"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Update(c.Request().Context(), c.Param("id"), ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.Priority(req.Priority),
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		ProjectID:   req.ProjectID,
		OwnerID:     id.UserID,
		Actor:       id.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateStatus transitions a task to a new status.
//
// @Summary      Update task status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Task ID"
// @Param        body  body      updateTaskStatusRequest  true  "New status"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateStatus(c.Request().Context(), c.Param("id"), id.UserID, id.Username, domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes one of the caller's tasks.
//
// @Summary      Delete a task
// @Tags         tasks
// @Param        id  path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), c.Param("id"), id.UserID, id.Username); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns the caller's task counts grouped by status.
//
// @Summary      My task statistics
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  taskStatsResponse
// @Security     BearerAuth
// @Router       /v1/tasks/stats [get]
func (h *TaskHandler) Stats(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	stats, err := h.taskService.Stats(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskStatsResponse{
		Total:      stats.Total,
		Todo:       stats.Todo,
		InProgress: stats.InProgress,
		Done:       stats.Done,
	})
}

// Activity returns the audit trail of one of the caller's tasks.
//
// @Summary      Task activity trail
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {array}   taskActivityResponse
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/tasks/{id}/activity [get]
func (h *TaskHandler) Activity(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	// Ownership check first so a foreign task id reads as not found rather
	// than leaking its activity.
	task, err := h.taskService.Get(c.Request().Context(), c.Param("id"), id.UserID)
	if err != nil {
		return err
	}

	entries, err := h.activityRepo.ListByTask(c.Request().Context(), task.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toActivityResponse(entries))
}
