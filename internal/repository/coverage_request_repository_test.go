package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subcover-api/internal/models"
)

func TestCreateCoverageRequestForcesOpen(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoverageRequestRepository(db)

	mock.ExpectExec("INSERT INTO coverage_requests").WillReturnResult(sqlmock.NewResult(1, 1))

	sub := "someone"
	req := &models.CoverageRequest{TenantID: 1, RequesterID: "r-1", Status: models.CoverageStatusFilled, SubstituteID: &sub}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, models.CoverageStatusOpen, req.Status)
	assert.Nil(t, req.SubstituteID)
	assert.NotEmpty(t, req.Token)
	assert.NotEqual(t, req.ID, req.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptIsConditionalOnOpen(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoverageRequestRepository(db)

	now := time.Now().UTC()
	date := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`UPDATE coverage_requests cr\s+SET status = \$3, substitute_id = \$2, filled_at = \$4\s+WHERE cr.token = \$1 AND cr.status = \$5`).
		WithArgs("tok", "c-1", string(models.CoverageStatusFilled), now, string(models.CoverageStatusOpen)).
		WillReturnRows(sqlmock.NewRows(coverageRowColumns).
			AddRow("id-1", "tok", 1, "r-1", date, "08:00-12:00", 3, 2, nil, "", models.ReasonSickness, "Filled", "c-1", now, now))
	mock.ExpectQuery(`UPDATE coverage_requests`).
		WithArgs("tok", "c-2", string(models.CoverageStatusFilled), now, string(models.CoverageStatusOpen)).
		WillReturnRows(sqlmock.NewRows(coverageRowColumns))

	filled, err := repo.Accept(context.Background(), "tok", "c-1", now)
	require.NoError(t, err)
	assert.Equal(t, models.CoverageStatusFilled, filled.Status)
	assert.Equal(t, "c-1", *filled.SubstituteID)

	_, err = repo.Accept(context.Background(), "tok", "c-2", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppliesSiteScopeAndPaging(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoverageRequestRepository(db)

	tenant := int64(1)
	status := models.CoverageStatusOpen
	q := CoverageListQuery{TenantID: &tenant, SiteIDs: []int64{10}, Status: &status, Limit: 20, Offset: 20}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM coverage_requests cr WHERE cr.tenant_id = \$1 AND \(cr.site_id = ANY\(\$2\) OR .* AND cr.status = \$3`).
		WithArgs(int64(1), sqlmock.AnyArg(), string(models.CoverageStatusOpen)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`ORDER BY cr.request_date DESC, cr.created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(int64(1), sqlmock.AnyArg(), string(models.CoverageStatusOpen), 20, 20).
		WillReturnRows(sqlmock.NewRows(coverageRowColumns).
			AddRow("id-21", "tok-21", 1, "r-1", time.Now(), "08:00-12:00", 3, 2, 10, "", models.ReasonOther, "Open", nil, time.Now(), nil))

	items, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(10), *items[0].SiteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
