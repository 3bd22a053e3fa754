package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/Rishi-0007/tm-assignment/domain/task"
	"gorm.io/gorm"
)

// Repository provides access to task storage. Every query is scoped to one user.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new task to the database.
func (r *Repository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves one of the user's tasks.
func (r *Repository) FindByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).First(&task, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// List returns one page of the user's tasks, newest first, and the total
// number of tasks matching the filter. The filter must already be normalized.
func (r *Repository) List(ctx context.Context, userID string, filter domain.Filter) ([]domain.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Task{}).Where("user_id = ?", userID).
		Session(&gorm.Session{})

	if filter.Status != "" && filter.Status != StatusAll {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, filter.Limit)
	err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Update writes all fields of an existing task.
func (r *Repository) Update(ctx context.Context, task *domain.Task) error {
	result := r.db.WithContext(ctx).Model(task).
		Where("user_id = ?", task.UserID).
		Select("title", "description", "status", "updated_at").
		Updates(task)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one of the user's tasks.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ? AND user_id = ?", id, userID)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
