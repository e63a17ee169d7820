package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finlearn/internal/config"
	"finlearn/internal/database"
	"finlearn/internal/logger"
	"finlearn/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(db, cfg.DatabaseType)
	if err := handleExport(ctx, backupService, *exportOutput, log); err != nil {
		log.Fatal("export failed", "error", err)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string, log *logger.Logger) error {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	log.Info("exporting progression data", "output", outputPath)
	if err := backupService.Export(ctx, outputPath); err != nil {
		return err
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("failed to stat export: %w", err)
	}
	log.Info("export complete", "size_mb", fmt.Sprintf("%.2f", float64(fileInfo.Size())/1024/1024))
	return nil
}

func printUsage() {
	fmt.Println("Finlearn progression export tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [-output file.json]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export")
	fmt.Println("  backup export -output backups/progression.json")
}
