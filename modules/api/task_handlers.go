package api

import (
	domain "github.com/Rishi-0007/tm-assignment/domain/task"
	"github.com/gofiber/fiber/v2"
)

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	filter := domain.Filter{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	page, err := h.tasks.List(c.UserContext(), claims.UserID, filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(page)
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := h.tasks.Create(c.UserContext(), claims.UserID, domain.Draft{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	found, err := h.tasks.Get(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(found)
}

// UpdateTask handles PATCH /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updated, err := h.tasks.Update(c.UserContext(), claims.UserID, c.Params("id"), domain.Patch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(updated)
}

// ToggleTask handles PATCH /tasks/:id/toggle.
func (h *Handlers) ToggleTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	toggled, err := h.tasks.Toggle(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(toggled)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.tasks.Delete(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return h.handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
