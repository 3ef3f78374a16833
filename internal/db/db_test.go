package db

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockConn(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sqlx.NewDb(conn, "sqlmock"), mock
}

func TestRunMigrationsWithMissingPath(t *testing.T) {
	conn, mock := newMockConn(t)

	err := RunMigrations(context.Background(), conn, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsAppliesUpFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0002_playlists.up.sql": "CREATE TABLE playlists (id text);",
		"0001_init.up.sql":      "CREATE TABLE users (id text);",
		"0001_init.down.sql":    "DROP TABLE users;",
		"0003_empty.up.sql":     "",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	conn, mock := newMockConn(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE playlists")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunMigrations(context.Background(), conn, dir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_bad.up.sql"), []byte("CREATE nonsense;"), 0o644))

	conn, mock := newMockConn(t)
	mock.ExpectExec("CREATE nonsense").WillReturnError(assert.AnError)

	err := RunMigrations(context.Background(), conn, dir)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "0001_bad.up.sql")
}
