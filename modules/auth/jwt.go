package auth

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenConfig holds the signing secrets and lifetimes for both token kinds.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// tokenClaims is the JWT payload. Refresh tokens carry only the user id.
type tokenClaims struct {
	UserID    string  `json:"userId"`
	Email     string  `json:"email,omitempty"`
	Name      *string `json:"name,omitempty"`
	TokenType string  `json:"typ"`
	jwt.RegisteredClaims
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// TokenService issues and verifies access and refresh tokens.
// It holds no state beyond its configuration and is safe for concurrent use.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a TokenService. The config is expected to be validated.
func NewTokenService(config TokenConfig, opts ...TokenOption) *TokenService {
	s := &TokenService{
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a fresh access/refresh pair for the user.
func (s *TokenService) Issue(userID, email string, name *string) (*domain.TokenPair, error) {
	access, err := s.sign(tokenClaims{
		UserID:    userID,
		Email:     email,
		Name:      name,
		TokenType: tokenTypeAccess,
	}, s.config.AccessSecret, s.config.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.sign(tokenClaims{
		UserID:    userID,
		TokenType: tokenTypeRefresh,
	}, s.config.RefreshSecret, s.config.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *TokenService) sign(claims tokenClaims, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.config.Issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyAccess validates an access token and returns its identity claims.
func (s *TokenService) VerifyAccess(tokenString string) (*domain.Claims, error) {
	claims, err := s.parse(tokenString, s.config.AccessSecret, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// VerifyRefresh validates a refresh token and returns the user id it was issued to.
// It does not consult the credential store.
func (s *TokenService) VerifyRefresh(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, s.config.RefreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *TokenService) parse(tokenString, secret, tokenType string) (*tokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessTTL returns the access token lifetime in seconds.
func (s *TokenService) AccessTTL() int64 {
	return int64(s.config.AccessTTL.Seconds())
}
