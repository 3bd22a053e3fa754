package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/Rishi-0007/tm-assignment/internal/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Service names registered by the auth module.
const (
	ServiceRegister = "register"
	ServiceLogin    = "login"
	ServiceRefresh  = "refresh-token"
	ServiceLogout   = "logout"
	ServiceGetUser  = "get-user"
)

// AuthModule owns the users table and provides authentication services.
type AuthModule struct {
	db      *gorm.DB
	service *Service
	tokens  *TokenService
	dbPath  string
	debug   bool
	logger  *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule backed by the SQLite file at dbPath.
func NewModule(dbPath string, debug bool, tokens *TokenService) *AuthModule {
	return &AuthModule{
		dbPath: dbPath,
		debug:  debug,
		tokens: tokens,
		logger: slog.Default().With("module", "auth"),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the database and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.dbPath, m.debug, &domain.User{})
	if err != nil {
		return err
	}
	m.db = db
	m.service = NewService(NewUserRepository(db), NewPasswordHasher(), m.tokens)

	m.logger.Info("module started", "database", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		return err
	}
	m.logger.Info("module stopped")
	return nil
}

// Service returns the auth service. It is nil until Start has run.
func (m *AuthModule) Service() *Service {
	return m.service
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
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
			Message: fmt.Sprintf("failed to get database connection: %v", err),
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
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefresh, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefresh, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogout, json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogout, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("registered services",
		"services", []string{ServiceRegister, ServiceLogin, ServiceRefresh, ServiceLogout, ServiceGetUser})
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return RegisterResponse{}, err
	}
	return RegisterResponse{User: *user}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	res, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	return *res, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	pair, err := m.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return RefreshResponse{}, err
	}
	return *pair, nil
}

func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	return LogoutResponse{}, m.service.Logout(ctx, req.UserID)
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}
	return *user, nil
}
