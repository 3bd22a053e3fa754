package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	domain "github.com/Rishi-0007/tm-assignment/domain/task"
	"github.com/Rishi-0007/tm-assignment/internal/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Service names registered by the task module.
const (
	ServiceList   = "list"
	ServiceCreate = "create"
	ServiceGet    = "get"
	ServiceUpdate = "update"
	ServiceToggle = "toggle"
	ServiceDelete = "delete"
)

// TaskModule owns the tasks table and provides task services.
type TaskModule struct {
	db      *gorm.DB
	service *Service
	dbPath  string
	debug   bool
	logger  *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(dbPath string, debug bool) *TaskModule {
	return &TaskModule{
		dbPath: dbPath,
		debug:  debug,
		logger: slog.Default().With("module", "task"),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Start opens the database and runs migrations.
func (m *TaskModule) Start(_ context.Context) error {
	db, err := database.Open(m.dbPath, m.debug, &domain.Task{})
	if err != nil {
		return err
	}
	m.db = db
	m.service = NewService(NewRepository(db))

	m.logger.Info("module started", "database", m.dbPath)
	return nil
}

// Stop gracefully closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		return err
	}
	m.logger.Info("module stopped")
	return nil
}

// Service returns the task service. It is nil until Start has run.
func (m *TaskModule) Service() *Service {
	return m.service
}

// Health performs a health check on the task module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceList, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGet, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdate, json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToggle, json.Unmarshal, json.Marshal, m.toggleTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToggle, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDelete, err)
	}

	m.logger.Info("registered services", "services", "services.task.{list,create,get,update,toggle,delete}")
	return nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	page, err := m.service.List(ctx, req.UserID, req.Filter)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return *page, nil
}

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req.UserID, req.Draft)
	if err != nil {
		return TaskResponse{}, err
	}
	return *task, nil
}

func (m *TaskModule) getTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Get(ctx, req.UserID, req.ID)
	if err != nil {
		return TaskResponse{}, err
	}
	return *task, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Update(ctx, req.UserID, req.ID, req.Patch)
	if err != nil {
		return TaskResponse{}, err
	}
	return *task, nil
}

func (m *TaskModule) toggleTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Toggle(ctx, req.UserID, req.ID)
	if err != nil {
		return TaskResponse{}, err
	}
	return *task, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req TaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.UserID, req.ID); err != nil {
		return DeleteTaskResponse{Deleted: false, ID: req.ID}, err
	}
	return DeleteTaskResponse{Deleted: true, ID: req.ID}, nil
}
