package user

import (
	"time"
)

// User represents a registered account.
// RefreshToken holds the single refresh token currently accepted for the user;
// nil means the user is logged out everywhere.
type User struct {
	ID           string  `gorm:"primaryKey;type:text"`
	Email        string  `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string  `gorm:"not null;type:text"`
	Name         *string `gorm:"type:text"`
	RefreshToken *string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Public returns the projection of the user that is safe to hand to clients.
func (u *User) Public() Public {
	return Public{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

// Public is the client-visible view of a user.
type Public struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims is the identity carried by an access token.
type Claims struct {
	UserID string  `json:"userId"`
	Email  string  `json:"email"`
	Name   *string `json:"name,omitempty"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	TokenPair
	User Public `json:"user"`
}
