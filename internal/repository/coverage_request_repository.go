package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/subcover-api/internal/models"
)

const coverageColumns = `cr.id, cr.token, cr.tenant_id, cr.requester_id, cr.request_date, cr.time_range, cr.grade_id, cr.subject_id, cr.site_id,
	cr.details, cr.reason, cr.status, cr.substitute_id, cr.created_at, cr.filled_at`

// CoverageListQuery narrows a coverage request listing. Nil fields are ignored.
type CoverageListQuery struct {
	TenantID     *int64
	RequesterID  *string
	SubstituteID *string
	SiteIDs      []int64
	Status       *models.CoverageStatus
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// CoverageRequestRepository persists coverage requests.
type CoverageRequestRepository struct {
	db *sqlx.DB
}

// NewCoverageRequestRepository constructs the repository.
func NewCoverageRequestRepository(db *sqlx.DB) *CoverageRequestRepository {
	return &CoverageRequestRepository{db: db}
}

// Create inserts an Open request, assigning id, token and timestamps.
func (r *CoverageRequestRepository) Create(ctx context.Context, req *models.CoverageRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Token == "" {
		req.Token = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.Status = models.CoverageStatusOpen
	req.SubstituteID = nil
	req.FilledAt = nil

	const query = `INSERT INTO coverage_requests
	(id, token, tenant_id, requester_id, request_date, time_range, grade_id, subject_id, site_id, details, reason, status, created_at)
	VALUES (:id, :token, :tenant_id, :requester_id, :request_date, :time_range, :grade_id, :subject_id, :site_id, :details, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create coverage request: %w", err)
	}
	return nil
}

// GetByToken fetches a request by its public token.
func (r *CoverageRequestRepository) GetByToken(ctx context.Context, token string) (*models.CoverageRequest, error) {
	query := `SELECT ` + coverageColumns + ` FROM coverage_requests cr WHERE cr.token = $1`
	var req models.CoverageRequest
	if err := r.db.GetContext(ctx, &req, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get coverage request: %w", err)
	}
	return &req, nil
}

// Accept atomically moves an Open request to Filled for candidateID. When the
// request is not Open (or does not exist) it returns sql.ErrNoRows.
func (r *CoverageRequestRepository) Accept(ctx context.Context, token, candidateID string, at time.Time) (*models.CoverageRequest, error) {
	query := `UPDATE coverage_requests cr
	SET status = $3, substitute_id = $2, filled_at = $4
	WHERE cr.token = $1 AND cr.status = $5
	RETURNING ` + coverageColumns
	var req models.CoverageRequest
	err := r.db.GetContext(ctx, &req, query, token, candidateID, models.CoverageStatusFilled, at, models.CoverageStatusOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("accept coverage request: %w", err)
	}
	return &req, nil
}

// List returns requests matching q, newest date first, and the total count.
func (r *CoverageRequestRepository) List(ctx context.Context, q CoverageListQuery) ([]models.CoverageRequest, int, error) {
	where, args := buildCoverageConditions(q)

	countQuery := `SELECT COUNT(*) FROM coverage_requests cr` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count coverage requests: %w", err)
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + coverageColumns + ` FROM coverage_requests cr` + where)
	builder.WriteString(` ORDER BY cr.request_date DESC, cr.created_at DESC`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		builder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
		args = append(args, q.Offset)
		builder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	var items []models.CoverageRequest
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("list coverage requests: %w", err)
	}
	return items, total, nil
}

func buildCoverageConditions(q CoverageListQuery) (string, []interface{}) {
	args := make([]interface{}, 0, 8)
	conditions := make([]string, 0, 6)

	if q.TenantID != nil {
		args = append(args, *q.TenantID)
		conditions = append(conditions, fmt.Sprintf("cr.tenant_id = $%d", len(args)))
	}
	if q.RequesterID != nil {
		args = append(args, *q.RequesterID)
		conditions = append(conditions, fmt.Sprintf("cr.requester_id = $%d", len(args)))
	}
	if q.SubstituteID != nil {
		args = append(args, *q.SubstituteID)
		conditions = append(conditions, fmt.Sprintf("cr.substitute_id = $%d", len(args)))
	}
	if q.SiteIDs != nil {
		// Requests without a site are visible through the requester's sites.
		args = append(args, pq.Array(q.SiteIDs))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(cr.site_id = ANY($%d) OR (cr.site_id IS NULL AND EXISTS (SELECT 1 FROM user_sites us WHERE us.user_id = cr.requester_id AND us.site_id = ANY($%d))))", n, n))
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		conditions = append(conditions, fmt.Sprintf("cr.status = $%d", len(args)))
	}
	if q.DateFrom != nil {
		args = append(args, *q.DateFrom)
		conditions = append(conditions, fmt.Sprintf("cr.request_date >= $%d", len(args)))
	}
	if q.DateTo != nil {
		args = append(args, *q.DateTo)
		conditions = append(conditions, fmt.Sprintf("cr.request_date <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
