package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(config DialectConfig) string {
	if strings.Contains(config.URL, "parseTime=") {
		return config.URL
	}
	if strings.Contains(config.URL, "?") {
		return config.URL + "&parseTime=true&loc=UTC"
	}
	return config.URL + "?parseTime=true&loc=UTC"
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) Upsert(table string, insertCols, conflictCols, updateCols []string) string {
	sets := make([]string, len(updateCols))
	for i, col := range updateCols {
		sets[i] = col + " = VALUES(" + col + ")"
	}
	return insertPrefix("INSERT", table, insertCols) + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

func (d *MySQLDialect) InsertIgnore(table string, insertCols, conflictCols []string) string {
	return insertPrefix("INSERT IGNORE", table, insertCols)
}

func (d *MySQLDialect) LockClause() string {
	return " FOR UPDATE"
}
