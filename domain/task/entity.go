package task

import (
	"time"
)

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Task is a single to-do item owned by one user.
type Task struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Title       string    `gorm:"not null;type:text" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Status      Status    `gorm:"not null;type:text;default:pending;index" json:"status"`
	UserID      string    `gorm:"not null;type:text;index" json:"userId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Filter selects a page of a user's tasks.
type Filter struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// Page is one page of tasks.
type Page struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// Draft is the input for a new task.
type Draft struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      Status  `json:"status,omitempty"`
}

// Patch lists the fields to change; nil fields are left as they are.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}
