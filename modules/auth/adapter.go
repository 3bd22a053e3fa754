package auth

import (
	"context"
	"encoding/json"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is the set of auth operations other modules depend on.
// Both *Service and *AuthAdapter implement it.
type AuthPort interface {
	Register(ctx context.Context, email, password string, name *string) (*domain.Public, error)
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*domain.Public, error)
}

var (
	_ AuthPort = (*Service)(nil)
	_ AuthPort = (*AuthAdapter)(nil)
)

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Register creates a new account.
func (a *AuthAdapter) Register(ctx context.Context, email, password string, name *string) (*domain.Public, error) {
	req := RegisterRequest{Email: email, Password: password, Name: name}
	var resp RegisterResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRegister,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, classifyError(err)
	}
	return &resp.User, nil
}

// Login authenticates a user and returns tokens.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, classifyError(err)
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp RefreshResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRefresh,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, classifyError(err)
	}
	return &resp, nil
}

// Logout drops the user's refresh token.
func (a *AuthAdapter) Logout(ctx context.Context, userID string) error {
	req := LogoutRequest{UserID: userID}
	var resp LogoutResponse
	err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogout,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	)
	return classifyError(err)
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Public, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, classifyError(err)
	}
	return &resp, nil
}
