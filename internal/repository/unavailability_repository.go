package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/subcover-api/internal/models"
)

const exceptionColumns = `e.id, e.candidate_id, e.exception_date, e.all_day, e.time_range, e.repeat_pattern, e.repeat_until, e.created_at`

// UnavailabilityRepository persists candidate unavailability exceptions.
type UnavailabilityRepository struct {
	db *sqlx.DB
}

// NewUnavailabilityRepository constructs the repository.
func NewUnavailabilityRepository(db *sqlx.DB) *UnavailabilityRepository {
	return &UnavailabilityRepository{db: db}
}

// ListForDate returns every exception of the tenant's candidates that may
// apply on date: anchored on it, or repeating on its weekday within bounds.
func (r *UnavailabilityRepository) ListForDate(ctx context.Context, tenantID int64, date time.Time) ([]models.UnavailabilityException, error) {
	query := `SELECT ` + exceptionColumns + `
	FROM unavailability_exceptions e
	JOIN users u ON u.id = e.candidate_id
	WHERE u.tenant_id = $1
	  AND (e.exception_date = $2
	       OR (lower(e.repeat_pattern) = lower($3)
	           AND e.exception_date <= $2
	           AND (e.repeat_until IS NULL OR e.repeat_until >= $2)))
	ORDER BY e.candidate_id, e.created_at`
	var items []models.UnavailabilityException
	if err := r.db.SelectContext(ctx, &items, query, tenantID, date, date.Weekday().String()); err != nil {
		return nil, fmt.Errorf("list exceptions for date: %w", err)
	}
	return items, nil
}

// ListByCandidate returns a candidate's exceptions, newest anchor first.
func (r *UnavailabilityRepository) ListByCandidate(ctx context.Context, candidateID string) ([]models.UnavailabilityException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM unavailability_exceptions e WHERE e.candidate_id = $1 ORDER BY e.exception_date DESC, e.created_at DESC`
	var items []models.UnavailabilityException
	if err := r.db.SelectContext(ctx, &items, query, candidateID); err != nil {
		return nil, fmt.Errorf("list candidate exceptions: %w", err)
	}
	return items, nil
}

// Create inserts a new exception.
func (r *UnavailabilityRepository) Create(ctx context.Context, exc *models.UnavailabilityException) error {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO unavailability_exceptions (id, candidate_id, exception_date, all_day, time_range, repeat_pattern, repeat_until, created_at)
		VALUES (:id, :candidate_id, :exception_date, :all_day, :time_range, :repeat_pattern, :repeat_until, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exc); err != nil {
		return fmt.Errorf("create exception: %w", err)
	}
	return nil
}

// Delete removes an exception owned by candidateID. It returns sql.ErrNoRows
// when no such exception belongs to the candidate.
func (r *UnavailabilityRepository) Delete(ctx context.Context, id, candidateID string) error {
	const query = `DELETE FROM unavailability_exceptions WHERE id = $1 AND candidate_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, candidateID)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exception rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
