package domain

import "time"

// Activity actions recorded in the task audit trail.
const (
	ActivityCreated       = "created"
	ActivityUpdated       = "updated"
	ActivityStatusChanged = "status_changed"
	ActivityDeleted       = "deleted"
)

// TaskActivity is a single entry in a task's audit trail.
type TaskActivity struct {
	TaskID    string     `json:"task_id"`
	Action    string     `json:"action"`
	Status    TaskStatus `json:"status,omitempty"`
	Actor     string     `json:"actor"`
	Timestamp time.Time  `json:"timestamp"`
}
