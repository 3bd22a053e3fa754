package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what an access token says about its holder.
type Identity struct {
	UserID    string
	Email     string
	Name      *string
	ExpiresAt time.Time
}

// Expired reports whether the token had expired at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// DecodeClaims reads the identity from an access token without verifying
// its signature. Only the server can verify it; this is for display.
func DecodeClaims(accessToken string) (*Identity, error) {
	var claims struct {
		UserID string  `json:"userId"`
		Email  string  `json:"email"`
		Name   *string `json:"name"`
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}

	id := &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
