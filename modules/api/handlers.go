package api

import (
	"errors"
	"log/slog"

	"github.com/Rishi-0007/tm-assignment/modules/auth"
	"github.com/Rishi-0007/tm-assignment/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth   auth.AuthPort
	tasks  task.TaskPort
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort) *Handlers {
	return &Handlers{
		auth:   authPort,
		tasks:  taskPort,
		logger: slog.Default().With("module", "api"),
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		Message: "User created successfully",
		UserID:  user.ID,
	})
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(res)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	pair, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(pair)
}

// Logout revokes the caller's refresh token.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.auth.Logout(c.UserContext(), claims.UserID); err != nil {
		return h.handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the caller's public profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(user)
}

// handleError maps service errors onto HTTP responses without exposing internals.
func (h *Handlers) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return badRequest(c, auth.Detail(err))
	case errors.Is(err, auth.ErrConflict):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "conflict",
			Message: auth.Detail(err),
		})
	case errors.Is(err, auth.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: auth.Detail(err),
		})
	case errors.Is(err, auth.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: auth.Detail(err),
		})
	case errors.Is(err, auth.ErrUserNotFound):
		return notFound(c, "User not found")
	case errors.Is(err, task.ErrInvalidTask):
		return badRequest(c, task.Detail(err))
	case errors.Is(err, task.ErrNotFound):
		return notFound(c, "Task not found")
	default:
		h.logger.Error("internal error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthenticated",
		Message: "Access token required",
	})
}
