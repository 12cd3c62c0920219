package domain

import (
	"context"
	"errors"
	"time"
)

// User is created in the document store on first successful sign-in if
// absent; the OAuth flow never mutates it afterwards.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // empty for accounts created via external providers
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// SessionCache keeps issued tokens so sign-out can invalidate them.
type SessionCache interface {
	CacheToken(ctx context.Context, userID, token string, ttl time.Duration) error
	GetToken(ctx context.Context, userID string) (string, error)
	InvalidateToken(ctx context.Context, userID string) error
}
