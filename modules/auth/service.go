package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/google/uuid"
)

// Service implements registration, login, token refresh and logout.
// Each user has at most one accepted refresh token; issuing a new pair
// replaces it.
type Service struct {
	repo   *UserRepository
	hasher *PasswordHasher
	tokens *TokenService
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(repo *UserRepository, hasher *PasswordHasher, tokens *TokenService) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: slog.Default().With("module", "auth"),
	}
}

// Register creates a new account. The user starts without a refresh token.
func (s *Service) Register(ctx context.Context, email, password string, name *string) (pub *domain.Public, err error) {
	defer func() { observe("register", err) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if len(password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrConflict, ErrUserExists)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, ErrUserExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	p := user.Public()
	return &p, nil
}

// Login checks the credentials, issues a token pair and makes its refresh token
// the only one accepted for the user.
func (s *Service) Login(ctx context.Context, email, password string) (res *domain.LoginResult, err error) {
	defer func() { observe("login", err) }()

	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	pair, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	authMetrics.TokensIssued.Inc()

	return &domain.LoginResult{
		TokenPair: *pair,
		User:      user.Public(),
	}, nil
}

// Refresh exchanges a valid, currently stored refresh token for a new pair.
// The presented token stops being accepted once this returns successfully.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (pair *domain.TokenPair, err error) {
	defer func() { observe("refresh", err) }()

	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token required", ErrUnauthorized)
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrForbidden)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", ErrForbidden)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		s.logger.Warn("refresh token does not match stored token", "user_id", userID)
		return nil, fmt.Errorf("%w: invalid refresh token", ErrForbidden)
	}

	pair, err = s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	swapped, err := s.repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !swapped {
		// Another refresh or a logout replaced the token after we read it.
		return nil, fmt.Errorf("%w: invalid refresh token", ErrForbidden)
	}
	authMetrics.TokensIssued.Inc()

	return pair, nil
}

// Logout drops the user's stored refresh token. An empty or unknown id is a no-op.
func (s *Service) Logout(ctx context.Context, userID string) (err error) {
	defer func() { observe("logout", err) }()

	if userID == "" {
		return nil
	}
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// GetUser returns the public view of a user.
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.Public, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Public()
	return &p, nil
}
