package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// DSN starts write transactions immediately so concurrent writers queue on the
// busy timeout instead of failing with SQLITE_BUSY at commit.
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	params := "_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	if strings.Contains(config.Path, "?") {
		return config.Path + "&" + params
	}
	return config.Path + "?" + params
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) Upsert(table string, insertCols, conflictCols, updateCols []string) string {
	return onConflictUpsert(table, insertCols, conflictCols, updateCols)
}

func (d *SQLiteDialect) InsertIgnore(table string, insertCols, conflictCols []string) string {
	return onConflictDoNothing(table, insertCols, conflictCols)
}

// LockClause is empty: SQLite has no row locks, the immediate transaction
// already holds the database write lock.
func (d *SQLiteDialect) LockClause() string {
	return ""
}
