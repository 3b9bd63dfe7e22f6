package models

import "time"

// User represents an account in the credential store
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents a server-side session bound to a cookie token
type Session struct {
	ID            string
	UserID        string
	UserEmail     string
	Authenticated bool
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
