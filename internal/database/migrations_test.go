package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrate_AppliesPendingMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT version FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(2))

	for _, m := range Migrations[2:] {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(firstLine(m.SQL))).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).
			WithArgs(m.Version, m.Name).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
	}

	count, err := Migrate(context.Background(), db, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, len(Migrations)-2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_NothingToApply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"version"})
	for _, m := range Migrations {
		rows.AddRow(m.Version)
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT version FROM schema_migrations`).WillReturnRows(rows)

	count, err := Migrate(context.Background(), db, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBackFailedMigration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT version FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS medications`).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	count, err := Migrate(context.Background(), db, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_medications")
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_VersionsAreAscending(t *testing.T) {
	for i := 1; i < len(Migrations); i++ {
		assert.Greater(t, Migrations[i].Version, Migrations[i-1].Version)
	}
}

func firstLine(sql string) string {
	for _, line := range strings.Split(sql, "\n") {
		if trimmed := strings.TrimSuffix(strings.TrimSpace(line), " ("); trimmed != "" {
			return trimmed
		}
	}
	return sql
}
