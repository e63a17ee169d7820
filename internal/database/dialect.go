package database

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// Upsert returns an INSERT that updates updateCols when conflictCols already exist
	Upsert(table string, insertCols, conflictCols, updateCols []string) string

	// InsertIgnore returns an INSERT that silently skips rows violating conflictCols
	InsertIgnore(table string, insertCols, conflictCols []string) string

	// LockClause returns the row-lock suffix for SELECT statements inside a transaction
	LockClause() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

func insertPrefix(verb, table string, insertCols []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertCols)), ", ")
	return verb + " INTO " + table + " (" + strings.Join(insertCols, ", ") + ") VALUES (" + placeholders + ")"
}

// onConflictUpsert is shared by SQLite and PostgreSQL which both accept ON CONFLICT ... DO UPDATE
func onConflictUpsert(table string, insertCols, conflictCols, updateCols []string) string {
	sets := make([]string, len(updateCols))
	for i, col := range updateCols {
		sets[i] = col + " = excluded." + col
	}
	return insertPrefix("INSERT", table, insertCols) +
		" ON CONFLICT (" + strings.Join(conflictCols, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

func onConflictDoNothing(table string, insertCols, conflictCols []string) string {
	return insertPrefix("INSERT", table, insertCols) +
		" ON CONFLICT (" + strings.Join(conflictCols, ", ") + ") DO NOTHING"
}
