package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/database"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user into the database. The unique email
// constraint decides races between concurrent signups.
func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, email, passwordHash, now, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           strconv.FormatInt(id, 10),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, nil
	}

	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, rowID))
}

// UpdatePassword replaces the stored hash for the account with email.
// It reports false if no such account exists.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) (bool, error) {
	query := `
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE email = ?
	`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), email)
	if err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return rows > 0, nil
}

// GetAllUsers retrieves all users ordered by creation time
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			user models.User
			id   int64
		)
		if err := rows.Scan(&id, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.ID = strconv.FormatInt(id, 10)
		users = append(users, user)
	}

	return users, rows.Err()
}

// ImportUser inserts a user record with its existing hash and timestamps,
// skipping emails that are already present. It reports whether a row was added.
func (r *UserRepository) ImportUser(ctx context.Context, user models.User) (bool, error) {
	existing, err := r.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to import user: %w", err)
	}
	return true, nil
}

// ImportUsers imports every record or none of them. On a *database.DB the
// batch runs in its own transaction; on a *database.Tx the caller owns it.
// It returns how many records were added.
func (r *UserRepository) ImportUsers(ctx context.Context, users []models.User) (int, error) {
	db, ok := r.db.(*database.DB)
	if !ok {
		return r.importAll(ctx, users)
	}

	var imported int
	err := db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		imported, err = NewUserRepository(tx).importAll(ctx, users)
		return err
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

func (r *UserRepository) importAll(ctx context.Context, users []models.User) (int, error) {
	imported := 0
	for _, user := range users {
		added, err := r.ImportUser(ctx, user)
		if err != nil {
			return 0, fmt.Errorf("failed to import user %s: %w", user.Email, err)
		}
		if added {
			imported++
		}
	}
	return imported, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user models.User
		id   int64
	)
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.ID = strconv.FormatInt(id, 10)
	return &user, nil
}
