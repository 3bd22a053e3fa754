package api

import (
	domain "github.com/Rishi-0007/tm-assignment/domain/task"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// RegisterResponse acknowledges a new account.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      domain.Status `json:"status"`
}

// UpdateTaskRequest is the body of PATCH /tasks/:id.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *domain.Status `json:"status"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Module string `json:"module"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
