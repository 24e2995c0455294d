package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/subcover-api/internal/models"
)

// CatalogRepository reads and seeds reference data.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListGrades returns all grades.
func (r *CatalogRepository) ListGrades(ctx context.Context) ([]models.Grade, error) {
	var items []models.Grade
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name FROM grades ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return items, nil
}

// ListSubjects returns all subjects.
func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var items []models.Subject
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name FROM subjects ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return items, nil
}

// SitesByIDs returns the sites with the given ids.
func (r *CatalogRepository) SitesByIDs(ctx context.Context, ids []int64) ([]models.Site, error) {
	if len(ids) == 0 {
		return []models.Site{}, nil
	}
	var items []models.Site
	if err := r.db.SelectContext(ctx, &items, `SELECT id, tenant_id, name, code FROM sites WHERE id = ANY($1) ORDER BY id`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return items, nil
}

// Seed upserts a catalog in one transaction.
func (r *CatalogRepository) Seed(ctx context.Context, catalog models.Catalog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, t := range catalog.Tenants {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO tenants (id, name) VALUES (:id, :name)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, t); err != nil {
			return fmt.Errorf("seed tenant %d: %w", t.ID, err)
		}
	}
	for _, s := range catalog.Sites {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO sites (id, tenant_id, name, code) VALUES (:id, :tenant_id, :name, :code)
			ON CONFLICT (id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id, name = EXCLUDED.name, code = EXCLUDED.code`, s); err != nil {
			return fmt.Errorf("seed site %d: %w", s.ID, err)
		}
	}
	for _, g := range catalog.Grades {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO grades (id, name) VALUES (:id, :name)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, g); err != nil {
			return fmt.Errorf("seed grade %d: %w", g.ID, err)
		}
	}
	for _, s := range catalog.Subjects {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO subjects (id, name) VALUES (:id, :name)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, s); err != nil {
			return fmt.Errorf("seed subject %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
