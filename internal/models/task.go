package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Task struct {
	ID               uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID          uuid.UUID    `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title            string       `json:"title" gorm:"not null"`
	Description      string       `json:"description"`
	Priority         TaskPriority `json:"priority" gorm:"not null;default:'medium'"`
	Status           TaskStatus   `json:"status" gorm:"not null;default:'todo'"`
	DueDate          *time.Time   `json:"due_date" gorm:"index"`
	CompletedAt      *time.Time   `json:"completed_at"`
	CategoryID       *uuid.UUID   `json:"category_id" gorm:"type:uuid;index"`
	EstimatedMinutes *int         `json:"estimated_minutes"`
	ActualMinutes    *int         `json:"actual_minutes"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ApplyStatus transitions the status and keeps completedAt coupled to it:
// completedAt is non-null iff the status is completed. The two fields never
// change independently.
func (t *Task) ApplyStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == StatusCompleted {
		at := now
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
}

// Toggled returns a copy with the status flipped between completed and todo.
// Any non-completed status toggles to completed.
func (t Task) Toggled(now time.Time) Task {
	next := StatusCompleted
	if t.Status == StatusCompleted {
		next = StatusTodo
	}
	t.ApplyStatus(next, now)
	return t
}
