package domain

import (
	"errors"
	"time"
)

// Session identifies an authenticated user for the lifetime of a token.
type Session struct {
	ID        string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
