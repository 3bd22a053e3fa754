package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Handler returns Fiber middleware that limits requests per client IP within
// scope. Redis failures let the request through.
func Handler(limiter *SlidingWindowLimiter, scope string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return limit(c, limiter, scope, logger)
	}
}

func limit(c *fiber.Ctx, limiter *SlidingWindowLimiter, scope string, logger *slog.Logger) error {
	ip := c.IP()

	result, err := limiter.Allow(c.UserContext(), scope+":"+ip)
	if err != nil {
		logger.Warn("rate limiter unavailable, allowing request",
			"scope", scope, "ip", ip, "error", err)
		return c.Next()
	}

	setRateLimitHeaders(c, result)

	if !result.Allowed {
		return sendRateLimitExceeded(c, result)
	}

	return c.Next()
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *Result) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response.
func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":   "too_many_requests",
		"message": fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
	})
}
