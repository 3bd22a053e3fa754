package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Rishi-0007/tm-assignment/modules/auth"
	"github.com/Rishi-0007/tm-assignment/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limiter supplies per-scope rate limiting middleware.
type Limiter interface {
	Limit(scope string) fiber.Handler
}

// RouterConfig wires the HTTP router to its collaborators.
// Limiter is optional; nil disables rate limiting.
type RouterConfig struct {
	Auth        auth.AuthPort
	Tasks       task.TaskPort
	Verifier    TokenVerifier
	Limiter     Limiter
	CORSOrigins string
	AccessLog   bool
}

// NewRouter builds the Fiber application serving the REST API.
func NewRouter(cfg RouterConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	corsConfig := cors.Config{}
	if cfg.CORSOrigins != "" {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	app.Use(cors.New(corsConfig))

	handlers := NewHandlers(cfg.Auth, cfg.Tasks)
	gate := AuthMiddleware(cfg.Verifier)
	limit := func(scope string) fiber.Handler {
		if cfg.Limiter == nil {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return cfg.Limiter.Limit(scope)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(HealthResponse{Status: "healthy", Module: "api"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", limit("register"), handlers.Register)
	authRoutes.Post("/login", limit("login"), handlers.Login)
	authRoutes.Post("/refresh", limit("refresh"), handlers.Refresh)
	authRoutes.Post("/logout", gate, handlers.Logout)
	authRoutes.Get("/me", gate, handlers.Me)

	tasks := app.Group("/tasks", gate)
	tasks.Get("/", handlers.ListTasks)
	tasks.Post("/", handlers.CreateTask)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Patch("/:id", handlers.UpdateTask)
	tasks.Delete("/:id", handlers.DeleteTask)
	tasks.Patch("/:id/toggle", handlers.ToggleTask)

	return app
}

// customErrorHandler turns errors that escape a handler into a JSON response.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		slog.Default().Error("unhandled error", "module", "api", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// Config configures the API module.
type Config struct {
	Addr        string
	CORSOrigins string
}

// APIModule is the HTTP API module.
type APIModule struct {
	config   Config
	app      *fiber.App
	verifier TokenVerifier
	limiter  Limiter
	authPort auth.AuthPort
	taskPort task.TaskPort
	logger   *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. limiter may be nil.
func NewModule(config Config, verifier TokenVerifier, limiter Limiter) *APIModule {
	return &APIModule{
		config:   config,
		verifier: verifier,
		limiter:  limiter,
		logger:   slog.Default().With("module", "api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskPort == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.verifier == nil {
		return fmt.Errorf("token verifier not set")
	}

	m.app = NewRouter(RouterConfig{
		Auth:        m.authPort,
		Tasks:       m.taskPort,
		Verifier:    m.verifier,
		Limiter:     m.limiter,
		CORSOrigins: m.config.CORSOrigins,
		AccessLog:   true,
	})

	go func() {
		if err := m.app.Listen(m.config.Addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", m.config.Addr, "rate_limited", m.limiter != nil)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.config.Addr,
		},
	}
}
