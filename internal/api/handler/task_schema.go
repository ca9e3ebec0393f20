package handler

import (
	"time"

	"github.com/tcc/task-manager-api/internal/core/domain"
)

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Status      string     `json:"status"      validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id"`
	ProjectID   string     `json:"project_id"`
}

type updateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Status      string     `json:"status"      validate:"required,oneof=todo in_progress done"`
	Priority    string     `json:"priority"    validate:"required,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id"`
	ProjectID   string     `json:"project_id"`
}

type updateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress done"`
}

type taskStatsResponse struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Done       int64 `json:"done"`
}

type taskActivityResponse struct {
	TaskID    string    `json:"task_id"`
	Action    string    `json:"action"`
	Status    string    `json:"status,omitempty"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

func toActivityResponse(entries []domain.TaskActivity) []taskActivityResponse {
	out := make([]taskActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, taskActivityResponse{
			TaskID:    e.TaskID,
			Action:    e.Action,
			Status:    string(e.Status),
			Actor:     e.Actor,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
