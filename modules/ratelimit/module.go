package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Config configures the Redis connection and the per-IP quota.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Requests      int
	Window        time.Duration
	KeyPrefix     string
}

// Module owns the Redis client behind the auth endpoint rate limits.
// Start may run while the HTTP server is already serving Limit.
type Module struct {
	config  Config
	client  atomic.Pointer[redis.Client]
	limiter atomic.Pointer[SlidingWindowLimiter]
	logger  *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rate limiting module.
func NewModule(config Config) *Module {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "taskmanager:ratelimit:"
	}
	return &Module{
		config: config,
		logger: slog.Default().With("module", "ratelimit"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ratelimit"
}

// Start connects to Redis. An unreachable server is logged, not fatal:
// requests are let through until it comes back.
func (m *Module) Start(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     m.config.RedisAddr,
		Password: m.config.RedisPassword,
		DB:       m.config.RedisDB,
	})
	m.client.Store(client)
	m.limiter.Store(NewSlidingWindowLimiter(client, m.config.Requests, m.config.Window, m.config.KeyPrefix))

	if err := client.Ping(ctx).Err(); err != nil {
		m.logger.Warn("redis not reachable, rate limiting will fail open", "addr", m.config.RedisAddr, "error", err)
	} else {
		m.logger.Info("module started", "addr", m.config.RedisAddr,
			"requests", m.config.Requests, "window", m.config.Window)
	}
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	client := m.client.Load()
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	m.logger.Info("module stopped")
	return nil
}

// Health verifies the Redis connection.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	client := m.client.Load()
	if client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis client not initialized"}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"addr": m.config.RedisAddr},
	}
}

// Limit returns middleware enforcing the per-IP quota within scope.
// Requests pass untouched until the module has started.
func (m *Module) Limit(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limiter := m.limiter.Load()
		if limiter == nil {
			return c.Next()
		}
		return limit(c, limiter, scope, m.logger)
	}
}
