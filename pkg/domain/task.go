package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// TaskStatus is open until the task is done.
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusOpen || s == TaskStatusDone
}

// Task is a to-do item, optionally attached to a client.
type Task struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ClientID   *uuid.UUID `json:"client_id"`
	ClientName string     `json:"client_name,omitempty"`
	Title      string     `json:"title"`
	DueDate    *time.Time `json:"due_date"`
	Priority   Priority   `json:"priority"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TaskPatch holds the fields of a partial task update. Pointer-to-zero values
// for ClientID and DueDate clear the field.
type TaskPatch struct {
	Title    *string
	ClientID *uuid.UUID
	DueDate  *time.Time
	Priority *Priority
	Status   *TaskStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.ClientID == nil && p.DueDate == nil && p.Priority == nil && p.Status == nil
}

// Apply writes the patch onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.ClientID != nil {
		t.ClientID = optionalID(*p.ClientID)
	}
	if p.DueDate != nil {
		t.DueDate = optionalTime(*p.DueDate)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}
