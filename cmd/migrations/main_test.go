package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilePath(t *testing.T) {
	basePath := filepath.Join("..", "..", "internal", "adapters", "repository", "postgres", "migrations")

	name, err := migrationFilePath(basePath, "create_decision_schema.up")
	require.NoError(t, err)
	assert.Equal(t, "001_create_decision_schema.up.sql", name)

	name, err = migrationFilePath(basePath, "create_decision_schema.down")
	require.NoError(t, err)
	assert.Equal(t, "001_create_decision_schema.down.sql", name)

	_, err = migrationFilePath(basePath, "drop_everything")
	assert.Error(t, err)
}

func TestMigrationFileContent(t *testing.T) {
	basePath := filepath.Join("..", "..", "internal", "adapters", "repository", "postgres", "migrations")

	content, err := migrationFileContent(basePath, "create_decision_schema.up")
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS responses")
}
