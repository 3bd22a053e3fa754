package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Rishi-0007/tm-assignment/domain/task"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a task does not exist or belongs to another user.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidTask is returned for malformed task input.
	ErrInvalidTask = errors.New("invalid task")
)

// StatusAll disables status filtering when listing.
const StatusAll = "all"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Service implements per-user task CRUD.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService creates a new Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NormalizeFilter applies defaults and bounds to a list filter.
func NormalizeFilter(f domain.Filter) (domain.Filter, error) {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}

	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status != "" && f.Status != StatusAll && !domain.Status(f.Status).Valid() {
		return f, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, f.Status)
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

// List returns one page of the user's tasks.
func (s *Service) List(ctx context.Context, userID string, filter domain.Filter) (*domain.Page, error) {
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	tasks, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &domain.Page{
		Tasks: tasks,
		Pagination: domain.Pagination{
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		},
	}, nil
}

// Create adds a task for the user. Status defaults to pending.
func (s *Service) Create(ctx context.Context, userID string, draft domain.Draft) (*domain.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}

	status := draft.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, status)
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: draft.Description,
		Status:      status,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns one of the user's tasks.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.repo.FindByID(ctx, userID, id)
}

// Update applies a partial update to one of the user's tasks.
func (s *Service) Update(ctx context.Context, userID, id string, patch domain.Patch) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidTask)
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, *patch.Status)
		}
		task.Status = *patch.Status
	}
	task.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Toggle flips a task between pending and completed.
func (s *Service) Toggle(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	task.Status = task.Status.Toggled()
	task.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes one of the user's tasks.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
