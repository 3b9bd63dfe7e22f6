package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/validation"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete account backup structure
type BackupData struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Backend    string       `json:"backend"`
	Users      []UserBackup `json:"users"`
}

// UserBackup represents a user record for backup. IDs are not carried
// over: they are backend specific and sessions are not exported.
type UserBackup struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BackupStore is the account store view needed for export and import
type BackupStore interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	// ImportUsers adds the records whose email is not present yet, all or
	// nothing, and returns how many were added.
	ImportUsers(ctx context.Context, users []models.User) (int, error)
}

// ImportStats summarises an import run
type ImportStats struct {
	Imported int
	Skipped  int
}

// BackupService handles account backup and restore operations
type BackupService struct {
	store   BackupStore
	backend string
	logger  *slog.Logger
}

// NewBackupService creates a new backup service. backend names the storage
// kind for the export header (e.g. "sqlite", "mongodb").
func NewBackupService(store BackupStore, backend string, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{store: store, backend: backend, logger: logger}
}

// Export writes a backup of all accounts to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	// Exports carry password hashes.
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "accounts exported", "path", outputPath)
	return nil
}

// ExportToWriter writes a backup of all accounts to w as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	backup := &BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Backend:    s.backend,
		Users:      make([]UserBackup, 0, len(users)),
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.InfoContext(ctx, "export complete", "users", len(backup.Users))
	return nil
}

// Import restores accounts from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores accounts from a backup reader. Accounts whose
// email already exists are left untouched. A failed import adds nothing.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) (ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return ImportStats{}, fmt.Errorf("failed to decode backup: %w", err)
	}

	s.logger.InfoContext(ctx, "importing backup",
		"version", backup.Version,
		"exported_at", backup.ExportedAt,
		"backend", backup.Backend)

	users := make([]models.User, 0, len(backup.Users))
	for _, u := range backup.Users {
		email := validation.NormalizeEmail(u.Email)
		if email == "" || u.PasswordHash == "" {
			return ImportStats{}, fmt.Errorf("backup contains an incomplete user record")
		}
		users = append(users, models.User{
			Email:        email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}

	imported, err := s.store.ImportUsers(ctx, users)
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to import users: %w", err)
	}
	stats := ImportStats{Imported: imported, Skipped: len(users) - imported}

	s.logger.InfoContext(ctx, "import complete", "imported", stats.Imported, "skipped", stats.Skipped)
	return stats, nil
}
