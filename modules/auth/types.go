package auth

import (
	domain "github.com/Rishi-0007/tm-assignment/domain/user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	User domain.Public `json:"user"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued pair and the public user.
type LoginResponse = domain.LoginResult

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse represents a token refresh response.
type RefreshResponse = domain.TokenPair

// LogoutRequest asks for the user's refresh token to be dropped.
type LogoutRequest struct {
	UserID string `json:"userId"`
}

// LogoutResponse is empty; the bus needs a reply body.
type LogoutResponse struct{}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"userId"`
}

// GetUserResponse represents a get user response.
type GetUserResponse = domain.Public
