package models

import (
	"time"

	"task-manager/api/internal/validation"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

const (
	DefaultTaskPriority = 1
	MinTaskPriority     = 1
	MaxTaskPriority     = 5
)

type Task struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int64      `json:"user_id" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"size:100;not null" binding:"required,min=1,max=100"`
	Description *string    `json:"description" gorm:"size:500" binding:"omitempty,max=500"`
	Status      TaskStatus `json:"status" gorm:"not null;default:'pending'" binding:"required,oneof=pending in_progress completed"`
	Priority    int        `json:"priority" gorm:"not null;default:1" binding:"min=1,max=5"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// Validate enforces the stored-record invariants. Repositories call it before
// every write so invalid records are never accepted, whatever the caller.
func (t *Task) Validate() error {
	if err := validation.Struct(t); err != nil {
		return &ValidationError{Fields: validation.ToDetails(err)}
	}
	return nil
}

// Clone returns a deep copy so stored records are never aliased by callers.
func (t *Task) Clone() *Task {
	c := *t
	c.Description = cloneString(t.Description)
	return &c
}

// TaskCreate is the create payload. A present status must name a known
// state; only an absent one defaults to pending.
type TaskCreate struct {
	Title       string      `json:"title" binding:"required,min=1,max=100"`
	Description *string     `json:"description" binding:"omitempty,max=500"`
	Status      *TaskStatus `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *int        `json:"priority" binding:"omitempty,min=1,max=5"`
}

// NewTask builds an unsaved task for owner with defaults applied.
func (in TaskCreate) NewTask(ownerID int64) *Task {
	task := &Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: cloneString(in.Description),
		Status:      TaskStatusPending,
		Priority:    DefaultTaskPriority,
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	return task
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string     `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string     `json:"description" binding:"omitempty,max=500"`
	Status      *TaskStatus `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *int        `json:"priority" binding:"omitempty,min=1,max=5"`
}

// Apply copies the present fields onto task.
func (u TaskUpdate) Apply(task *Task) {
	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Description != nil {
		task.Description = cloneString(u.Description)
	}
	if u.Status != nil {
		task.Status = *u.Status
	}
	if u.Priority != nil {
		task.Priority = *u.Priority
	}
}

// Touch advances UpdatedAt to now, never letting it stand still or go back.
func (t *Task) Touch(now time.Time) {
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}
