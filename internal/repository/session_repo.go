package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/database"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/security"
)

// SessionRepository persists server-side sessions next to the credentials
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession stores a new authenticated session for user and returns it
func (r *SessionRepository) CreateSession(ctx context.Context, user *models.User, expiresAt time.Time) (*models.Session, error) {
	session := &models.Session{
		ID:            security.GenerateSessionID(),
		UserID:        user.ID,
		UserEmail:     user.Email,
		Authenticated: true,
		ExpiresAt:     expiresAt.UTC(),
		CreatedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO sessions (id, user_id, user_email, authenticated, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.UserEmail, session.Authenticated, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, user_email, authenticated, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	var (
		session models.Session
		userID  int64
	)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&userID,
		&session.UserEmail,
		&session.Authenticated,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.UserID = fmt.Sprint(userID)
	return &session, nil
}

// DeleteSession removes a session from the database
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	query := "DELETE FROM sessions WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	query := "DELETE FROM sessions WHERE expires_at < ?"
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
