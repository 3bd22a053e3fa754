package task

import (
	domain "github.com/Rishi-0007/tm-assignment/domain/task"
)

// ListTasksRequest represents a task.list request.
type ListTasksRequest struct {
	UserID string        `json:"userId"`
	Filter domain.Filter `json:"filter"`
}

// ListTasksResponse represents a task.list response.
type ListTasksResponse = domain.Page

// CreateTaskRequest represents a task.create request.
type CreateTaskRequest struct {
	UserID string       `json:"userId"`
	Draft  domain.Draft `json:"draft"`
}

// TaskRequest addresses a single task of a user.
type TaskRequest struct {
	UserID string `json:"userId"`
	ID     string `json:"id"`
}

// UpdateTaskRequest represents a task.update request.
type UpdateTaskRequest struct {
	UserID string       `json:"userId"`
	ID     string       `json:"id"`
	Patch  domain.Patch `json:"patch"`
}

// TaskResponse represents a single task.
type TaskResponse = domain.Task

// DeleteTaskResponse represents a task.delete response.
type DeleteTaskResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}
