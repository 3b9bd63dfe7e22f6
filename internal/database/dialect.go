package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect hides the differences between the SQL backends. Repositories
// write queries with ? placeholders and let the dialect rewrite them.
type Dialect interface {
	// Name is the backend label ("sqlite", "postgres", "mysql"). It also
	// names the migrations subdirectory.
	Name() string

	DriverName() string
	DSN(config DialectConfig) string
	RewriteQuery(query string) string

	// SupportsLastInsertId is false where inserts need RETURNING id
	SupportsLastInsertId() bool

	// ConfigureConnection sets pool limits and session settings
	ConfigureConnection(db *sql.DB) error

	CreateMigrationsTableQuery() string

	// UpsertOTPQuery returns an insert-or-replace for the otp_codes table
	// taking (email, code, expires_at, created_at).
	UpsertOTPQuery() string

	// IsUniqueViolation reports whether err is a unique constraint violation
	IsUniqueViolation(err error) bool
}

// DialectConfig is parsed from DB_URI. Path is set for SQLite, URL for the
// network databases.
type DialectConfig struct {
	Path string
	URL  string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered turns ? into $1, $2, ... Queries in this
// repo never contain a literal question mark.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// onConflictUpsertOTP is shared by SQLite and PostgreSQL.
const onConflictUpsertOTP = `
		INSERT INTO otp_codes (email, code, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE
		SET code = excluded.code, expires_at = excluded.expires_at, created_at = excluded.created_at
	`
