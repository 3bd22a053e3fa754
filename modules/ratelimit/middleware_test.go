package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(limiter *SlidingWindowLimiter) *fiber.App {
	app := fiber.New()
	app.Post("/auth/login", Handler(limiter, "login", slog.Default()), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestHandler_LimitsPerIP(t *testing.T) {
	_, client := setupRedis(t)
	app := newTestApp(NewSlidingWindowLimiter(client, 3, time.Minute, "test:"))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, resp.StatusCode)
		}
		if got := resp.Header.Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("X-RateLimit-Limit = %q, want 3", got)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "too_many_requests") {
		t.Errorf("body = %s, want too_many_requests error", body)
	}
}

func TestHandler_FailsOpen(t *testing.T) {
	mr, client := setupRedis(t)
	app := newTestApp(NewSlidingWindowLimiter(client, 1, time.Minute, "test:"))
	mr.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d with Redis down: status = %d, want 200", i+1, resp.StatusCode)
		}
	}
}

func TestModule_LimitBeforeStart(t *testing.T) {
	m := NewModule(Config{Requests: 1, Window: time.Minute})

	app := fiber.New()
	app.Get("/", m.Limit("login"), func(c *fiber.Ctx) error { return c.SendString("OK") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	}
}

func TestModule_StartAndLimit(t *testing.T) {
	mr, _ := setupRedis(t)

	m := NewModule(Config{RedisAddr: mr.Addr(), Requests: 1, Window: time.Minute})
	if err := m.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { m.Stop(t.Context()) })

	if h := m.Health(t.Context()); !h.Healthy {
		t.Errorf("Health() = %+v, want healthy", h)
	}

	app := fiber.New()
	app.Get("/", m.Limit("login"), func(c *fiber.Ctx) error { return c.SendString("OK") })

	want := []int{http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != code {
			t.Errorf("request %d: status = %d, want %d", i+1, resp.StatusCode, code)
		}
	}
}

func TestModule_StartWhileServing(t *testing.T) {
	mr, _ := setupRedis(t)

	m := NewModule(Config{RedisAddr: mr.Addr(), Requests: 100, Window: time.Minute})
	t.Cleanup(func() { m.Stop(t.Context()) })

	app := fiber.New()
	app.Get("/", m.Limit("login"), func(c *fiber.Ctx) error { return c.SendString("OK") })

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
				if err != nil {
					t.Errorf("app.Test() error = %v", err)
					return
				}
				if resp.StatusCode != http.StatusOK {
					t.Errorf("status = %d, want 200", resp.StatusCode)
				}
			}
		}()
	}

	if err := m.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	wg.Wait()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "100" {
		t.Errorf("X-RateLimit-Limit = %q after Start, want 100", got)
	}
}
