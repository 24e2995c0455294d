package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subcover-api/internal/models"
)

func TestSeedUpsertsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tenants").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sites").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO subjects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Seed(context.Background(), models.Catalog{
		Tenants:  []models.Tenant{{ID: 1, Name: "District"}},
		Sites:    []models.Site{{ID: 10, TenantID: 1, Name: "North", Code: "NOR"}},
		Grades:   []models.Grade{{ID: 9, Name: "All"}},
		Subjects: []models.Subject{{ID: 8, Name: "All"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tenants").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.Seed(context.Background(), models.Catalog{Tenants: []models.Tenant{{ID: 1, Name: "District"}}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSitesByIDsShortCircuits(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	sites, err := repo.SitesByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sites)
}
