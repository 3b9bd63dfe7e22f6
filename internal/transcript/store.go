// Package transcript keeps the CLI's local state in SQLite: the signed-in
// profile and per-user chat transcripts. The server never sees any of it.
package transcript

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	titleLimit   = 30
	previewLimit = 50

	// DefaultTitle names a chat whose first message was empty
	DefaultTitle = "New chat"
	// NoResponse stands in for an empty bot reply
	NoResponse = "No response"
)

// ErrChatNotFound is returned when a chat does not exist for the user
var ErrChatNotFound = errors.New("chat not found")

// Profile is the signed-in user saved between CLI runs
type Profile struct {
	Email        string
	SessionToken string
	ServerURL    string
	UpdatedAt    time.Time
}

// Store is a SQLite-backed transcript store
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the transcript database at path and
// applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate transcript database: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProfile replaces the stored profile
func (s *Store) SaveProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, email, session_token, server_url, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			session_token = excluded.session_token,
			server_url = excluded.server_url,
			updated_at = excluded.updated_at
	`, p.Email, p.SessionToken, p.ServerURL, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfile returns the stored profile, or nil if nobody is signed in
func (s *Store) LoadProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT email, session_token, server_url, updated_at FROM profile WHERE id = 1`,
	).Scan(&p.Email, &p.SessionToken, &p.ServerURL, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

// ClearProfile forgets the signed-in user. Transcripts are kept.
func (s *Store) ClearProfile(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// NewChat starts an empty conversation and returns its id. The chat has no
// summary until the first exchange is appended.
func (s *Store) NewChat() string {
	return uuid.New().String()
}

// AppendExchange stores a user message and the bot's reply, creating or
// refreshing the chat summary. The title comes from the chat's first
// message; the date and preview track the latest reply.
func (s *Store) AppendExchange(ctx context.Context, email, chatID, userText, botText string) (*models.ChatSummary, error) {
	if email == "" || chatID == "" {
		return nil, errors.New("email and chat id are required")
	}
	if botText == "" {
		botText = NoResponse
	}

	now := s.now().UTC()
	summary := &models.ChatSummary{
		ID:        chatID,
		UserEmail: email,
		Title:     truncate(userText, titleLimit),
		Date:      now.Format("2006-01-02"),
		Preview:   truncate(botText, previewLimit),
		UpdatedAt: now,
	}
	if strings.TrimSpace(summary.Title) == "" {
		summary.Title = DefaultTitle
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (user_email, id, title, date, preview, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_email, id) DO UPDATE SET
			date = excluded.date,
			preview = excluded.preview,
			updated_at = excluded.updated_at
	`, email, chatID, summary.Title, summary.Date, summary.Preview, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save chat summary: %w", err)
	}

	insert := `INSERT INTO messages (id, user_email, chat_id, text, sender, timestamp) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, uuid.New().String(), email, chatID, userText, models.SenderUser, now); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, uuid.New().String(), email, chatID, botText, models.SenderBot, now); err != nil {
		return nil, fmt.Errorf("failed to save bot message: %w", err)
	}

	// The stored title wins over the one computed from this message
	if err := tx.QueryRowContext(ctx, `SELECT title FROM chats WHERE user_email = ? AND id = ?`,
		email, chatID).Scan(&summary.Title); err != nil {
		return nil, fmt.Errorf("failed to read chat title: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exchange: %w", err)
	}
	return summary, nil
}

// Messages returns a chat's transcript in the order it was written
func (s *Store) Messages(ctx context.Context, email, chatID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, text, sender, timestamp
		FROM messages
		WHERE user_email = ? AND chat_id = ?
		ORDER BY seq
	`, email, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Text, &m.Sender, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Summaries lists a user's chats, most recently updated first
func (s *Store) Summaries(ctx context.Context, email string) ([]models.ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_email, title, date, preview, updated_at
		FROM chats
		WHERE user_email = ?
		ORDER BY updated_at DESC, created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var summaries []models.ChatSummary
	for rows.Next() {
		var c models.ChatSummary
		if err := rows.Scan(&c.ID, &c.UserEmail, &c.Title, &c.Date, &c.Preview, &c.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, c)
	}
	return summaries, rows.Err()
}

// DeleteChat removes a chat's summary and all of its messages
func (s *Store) DeleteChat(ctx context.Context, email, chatID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE user_email = ? AND id = ?`, email, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// truncate cuts s to at most limit runes
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
