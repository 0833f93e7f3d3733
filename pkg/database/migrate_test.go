package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations`
	existsSQL      = `SELECT EXISTS\(SELECT 1 FROM schema_migrations WHERE version = \$1\)`
	recordSQL      = `INSERT INTO schema_migrations \(version\) VALUES \(\$1\)`
)

func migrationFS() fstest.MapFS {
	return fstest.MapFS{
		"000002_add_index.up.sql":                 {Data: []byte("CREATE INDEX idx ON mutation_reports (record_id)")},
		"000001_create_mutation_reports.up.sql":   {Data: []byte("CREATE TABLE mutation_reports (id TEXT)")},
		"000001_create_mutation_reports.down.sql": {Data: []byte("DROP TABLE mutation_reports")},
		"README.md":                               {Data: []byte("notes")},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(createTableSQL).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery(existsSQL).WithArgs("000001_create_mutation_reports").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(existsSQL).WithArgs("000002_add_index").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX idx").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(recordSQL).WithArgs("000002_add_index").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, migrationFS(), quietLogger())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fsys := fstest.MapFS{"000001_bad.up.sql": {Data: []byte("CREAT TABLE")}}

	mock.ExpectExec(createTableSQL).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(existsSQL).WithArgs("000001_bad").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREAT TABLE").WillReturnError(errors.New(`syntax error at or near "CREAT"`))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, fsys, quietLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 000001_bad")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingFiles(t *testing.T) {
	names, err := pendingFiles(migrationFS())

	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_mutation_reports.up.sql", "000002_add_index.up.sql"}, names)
}
