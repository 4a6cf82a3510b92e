package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	raw, err := migrationsFS.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "-- +goose Down")
}

func TestMigratePassesCommand(t *testing.T) {
	orig := gooseRun
	t.Cleanup(func() { gooseRun = orig })

	var gotCmd, gotDir string
	var gotArgs []string
	gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		gotCmd, gotDir, gotArgs = command, dir, args
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil, nil, "up-to", "2"))
	assert.Equal(t, "up-to", gotCmd)
	assert.Equal(t, "migrations", gotDir)
	assert.Equal(t, []string{"2"}, gotArgs)
}

func TestMigrateWrapsError(t *testing.T) {
	orig := gooseRun
	t.Cleanup(func() { gooseRun = orig })

	boom := errors.New("boom")
	gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		return boom
	}

	err := Migrate(context.Background(), nil, nil, "down")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "goose down")
}
