package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations executes the SQL files under migrationsPath/<dialect subdir> that
// have not run yet and returns the filenames it applied, in order.
func (db *DB) RunMigrations(ctx context.Context, migrationsPath string) ([]string, error) {
	// Create migrations table if it doesn't exist
	if _, err := db.DB.ExecContext(ctx, db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	dir := filepath.Join(migrationsPath, db.Dialect.MigrationsSubdir())
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found in %s", dir)
	}

	// Sort files to ensure they run in order
	sort.Strings(files)

	var applied []string
	for _, file := range files {
		filename := filepath.Base(file)

		hasRun, err := db.hasMigrationRun(ctx, filename)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		if err := db.executeMigration(ctx, filename, string(content)); err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
		applied = append(applied, filename)
	}

	return applied, nil
}

// hasMigrationRun checks if a migration has already been executed
func (db *DB) hasMigrationRun(ctx context.Context, filename string) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM migrations WHERE filename = ?", filename); err != nil {
		return false, err
	}
	return count > 0, nil
}

// executeMigration runs each statement of a migration and records it in one transaction.
// Statements are split on ';' at end of line since the mysql driver rejects multi-statement execs.
func (db *DB) executeMigration(ctx context.Context, filename, content string) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		for _, stmt := range splitStatements(content) {
			if _, err := tx.Tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO migrations (filename) VALUES (?)", filename)
		return err
	})
}

func splitStatements(content string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
