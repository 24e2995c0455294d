package repository

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var coverageRowColumns = []string{"id", "token", "tenant_id", "requester_id", "request_date", "time_range", "grade_id", "subject_id", "site_id",
	"details", "reason", "status", "substitute_id", "created_at", "filled_at"}

var exceptionRowColumns = []string{"id", "candidate_id", "exception_date", "all_day", "time_range", "repeat_pattern", "repeat_until", "created_at"}

var staffRowColumns = []string{"id", "tenant_id", "full_name", "email", "phone", "role", "grade_ids", "subject_ids", "site_ids"}
