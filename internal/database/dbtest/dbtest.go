// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/database"
)

// Open returns a migrated SQLite database in a temporary directory. It is
// closed when the test finishes.
func Open(tb testing.TB) *database.DB {
	tb.Helper()

	db, err := database.Open("sqlite://" + filepath.Join(tb.TempDir(), "test.db"))
	require.NoError(tb, err)
	tb.Cleanup(func() { db.Close() })

	require.NoError(tb, db.RunMigrations(context.Background()))
	return db
}
