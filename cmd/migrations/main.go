package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/groupdecision/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		slog.Error("a migration name is required. Example: migrations create_decision_schema.up")
		os.Exit(2)
	}
	migrationName := os.Args[1]

	cfg, err := config.Load(os.Args[0], os.Args[2:])
	if err != nil {
		slog.Error("unable to load config", "error", err)
		os.Exit(2)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		slog.Error("could not open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	fileContent, err := migrationFileContent(basePath, migrationName)
	if err != nil {
		slog.Error("could not read migration", "name", migrationName, "error", err)
		os.Exit(1)
	}

	if _, err := db.Exec(string(fileContent)); err != nil {
		slog.Error("failed to execute SQL file", "name", migrationName, "error", err)
		os.Exit(1)
	}

	slog.Info("migration file executed successfully", "name", migrationName)
}

func migrationFileContent(basePath string, migrationName string) ([]byte, error) {
	filePath, err := migrationFilePath(basePath, migrationName)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(filepath.Join(basePath, filePath))
}

func migrationFilePath(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid migration name: %w", err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}

		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file %q not found", migrationName)
}
