package task

import (
	"context"
	"encoding/json"
	"strings"

	domain "github.com/Rishi-0007/tm-assignment/domain/task"
	"github.com/Rishi-0007/tm-assignment/internal/bus"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort is the set of task operations the HTTP layer depends on.
// Both *Service and *TaskAdapter implement it.
type TaskPort interface {
	List(ctx context.Context, userID string, filter domain.Filter) (*domain.Page, error)
	Create(ctx context.Context, userID string, draft domain.Draft) (*domain.Task, error)
	Get(ctx context.Context, userID, id string) (*domain.Task, error)
	Update(ctx context.Context, userID, id string, patch domain.Patch) (*domain.Task, error)
	Toggle(ctx context.Context, userID, id string) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

var (
	_ TaskPort = (*Service)(nil)
	_ TaskPort = (*TaskAdapter)(nil)
)

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

// List returns one page of the user's tasks.
func (a *TaskAdapter) List(ctx context.Context, userID string, filter domain.Filter) (*domain.Page, error) {
	req := ListTasksRequest{UserID: userID, Filter: filter}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceList, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, mapServiceError(err)
	}
	return &resp, nil
}

// Create adds a task for the user.
func (a *TaskAdapter) Create(ctx context.Context, userID string, draft domain.Draft) (*domain.Task, error) {
	req := CreateTaskRequest{UserID: userID, Draft: draft}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreate, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, mapServiceError(err)
	}
	return &resp, nil
}

// Get returns one of the user's tasks.
func (a *TaskAdapter) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	req := TaskRequest{UserID: userID, ID: id}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGet, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, mapServiceError(err)
	}
	return &resp, nil
}

// Update applies a partial update.
func (a *TaskAdapter) Update(ctx context.Context, userID, id string, patch domain.Patch) (*domain.Task, error) {
	req := UpdateTaskRequest{UserID: userID, ID: id, Patch: patch}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceUpdate, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, mapServiceError(err)
	}
	return &resp, nil
}

// Toggle flips the task's status.
func (a *TaskAdapter) Toggle(ctx context.Context, userID, id string) (*domain.Task, error) {
	req := TaskRequest{UserID: userID, ID: id}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceToggle, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, mapServiceError(err)
	}
	return &resp, nil
}

// Delete removes one of the user's tasks.
func (a *TaskAdapter) Delete(ctx context.Context, userID, id string) error {
	req := TaskRequest{UserID: userID, ID: id}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceDelete, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return mapServiceError(err)
	}
	return nil
}

// taskError keeps the remote message while restoring the sentinel.
type taskError struct {
	kind error
	msg  string
}

func (e *taskError) Error() string { return e.msg }
func (e *taskError) Unwrap() error { return e.kind }

// mapServiceError converts service errors back to sentinel errors by checking
// the message content. Errors lose their type information on the bus.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	msg := bus.Message(err)
	if strings.Contains(msg, ErrNotFound.Error()) {
		return ErrNotFound
	}
	if i := strings.Index(msg, ErrInvalidTask.Error()+":"); i >= 0 {
		return &taskError{kind: ErrInvalidTask, msg: msg[i:]}
	}
	return err
}

// Detail strips the kind prefix from a task error.
func Detail(err error) string {
	return strings.TrimPrefix(err.Error(), ErrInvalidTask.Error()+": ")
}
