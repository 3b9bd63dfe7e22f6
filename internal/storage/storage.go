// Package storage opens the account, session and OTP stores selected by DB_URI.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/config"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/database"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/mongostore"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/repository"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

// UserStore is everything the server and backup tool need from accounts
type UserStore interface {
	service.UserStore
	service.BackupStore
}

// Stores bundles the opened backends
type Stores struct {
	Users    UserStore
	Sessions service.SessionStore
	OTPs     service.OTPStore
	// Backend is "sqlite", "postgres", "mysql" or "mongodb"
	Backend string

	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// IsMongoURI reports whether uri selects the MongoDB backend
func IsMongoURI(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "mongodb://") || strings.HasPrefix(lower, "mongodb+srv://")
}

// Open connects to the backend named by cfg.DatabaseURI. Schema changes are
// not applied until Migrate is called.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	var (
		stores *Stores
		err    error
	)
	if IsMongoURI(cfg.DatabaseURI) {
		stores, err = openMongo(ctx, cfg)
	} else {
		stores, err = openSQL(cfg)
	}
	if err != nil {
		return nil, err
	}

	switch cfg.OTPStore {
	case "memory":
		logger.Warn("otp codes are kept in memory and lost on restart")
		stores.OTPs = repository.NewMemoryOTPRepository()
	case "", "db":
	default:
		_ = stores.Close(ctx)
		return nil, fmt.Errorf("unknown OTP_STORE %q (want db or memory)", cfg.OTPStore)
	}

	logger.Info("storage opened", "backend", stores.Backend)
	return stores, nil
}

func openSQL(cfg *config.Config) (*Stores, error) {
	db, err := database.Open(cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}

	return &Stores{
		Users:    repository.NewUserRepository(db),
		Sessions: repository.NewSessionRepository(db),
		OTPs:     repository.NewOTPRepository(db),
		Backend:  db.Dialect.Name(),
		migrate:  db.RunMigrations,
		close:    func(context.Context) error { return db.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Stores, error) {
	client, err := mongostore.New(ctx, cfg.DatabaseURI, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}

	return &Stores{
		Users:    mongostore.NewUsersStore(client.UsersCollection()),
		Sessions: mongostore.NewSessionsStore(client.SessionsCollection()),
		OTPs:     mongostore.NewOTPStore(client.OTPsCollection()),
		Backend:  "mongodb",
		migrate:  client.CreateIndexes,
		close:    client.Close,
	}, nil
}

// Migrate applies SQL migrations or creates MongoDB indexes
func (s *Stores) Migrate(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.Backend, err)
	}
	return nil
}

// Close releases the backend connection
func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}
