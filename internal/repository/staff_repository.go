package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/subcover-api/internal/models"
)

const staffSelect = `SELECT u.id, u.tenant_id, u.full_name, u.email, u.phone, u.role,
	ARRAY(SELECT grade_id FROM user_grades WHERE user_id = u.id ORDER BY grade_id) AS grade_ids,
	ARRAY(SELECT subject_id FROM user_subjects WHERE user_id = u.id ORDER BY subject_id) AS subject_ids,
	ARRAY(SELECT site_id FROM user_sites WHERE user_id = u.id ORDER BY site_id) AS site_ids
	FROM users u`

type staffRow struct {
	ID         string          `db:"id"`
	TenantID   int64           `db:"tenant_id"`
	FullName   string          `db:"full_name"`
	Email      string          `db:"email"`
	Phone      *string         `db:"phone"`
	Role       models.UserRole `db:"role"`
	GradeIDs   pq.Int64Array   `db:"grade_ids"`
	SubjectIDs pq.Int64Array   `db:"subject_ids"`
	SiteIDs    pq.Int64Array   `db:"site_ids"`
}

func (r staffRow) preferences() models.PreferenceSet {
	return models.PreferenceSet{
		Grades:   models.NewIDSet(r.GradeIDs...),
		Subjects: models.NewIDSet(r.SubjectIDs...),
		Sites:    models.NewIDSet(r.SiteIDs...),
	}
}

func (r staffRow) contact() models.Contact {
	return models.Contact{Email: r.Email, Phone: r.Phone}
}

func (r staffRow) candidate() models.Candidate {
	return models.Candidate{ID: r.ID, TenantID: r.TenantID, FullName: r.FullName, Contact: r.contact(), Preferences: r.preferences()}
}

func (r staffRow) requester() models.Requester {
	return models.Requester{ID: r.ID, TenantID: r.TenantID, FullName: r.FullName, Contact: r.contact(), Preferences: r.preferences()}
}

func (r staffRow) admin() models.Admin {
	return models.Admin{ID: r.ID, TenantID: r.TenantID, FullName: r.FullName, Role: r.Role, Contact: r.contact(), SiteIDs: models.NewIDSet(r.SiteIDs...)}
}

// StaffRepository loads requesters, candidates and admins together with
// their preference sets.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs the repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// ListCandidates returns the active candidates of a tenant ordered by id.
func (r *StaffRepository) ListCandidates(ctx context.Context, tenantID int64) ([]models.Candidate, error) {
	query := staffSelect + ` WHERE u.tenant_id = $1 AND u.role = $2 AND u.active ORDER BY u.id`
	var rows []staffRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, models.RoleCandidate); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	out := make([]models.Candidate, len(rows))
	for i, row := range rows {
		out[i] = row.candidate()
	}
	return out, nil
}

// GetCandidate returns a single active candidate.
func (r *StaffRepository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	row, err := r.get(ctx, id, models.RoleCandidate)
	if err != nil {
		return nil, err
	}
	c := row.candidate()
	return &c, nil
}

// GetRequester returns the requester of record by id. The role is not
// filtered; creating requests is restricted to requesters by the service.
func (r *StaffRepository) GetRequester(ctx context.Context, id string) (*models.Requester, error) {
	row, err := r.get(ctx, id, "")
	if err != nil {
		return nil, err
	}
	req := row.requester()
	return &req, nil
}

// ListAdmins returns the active admin-tier users of a tenant.
func (r *StaffRepository) ListAdmins(ctx context.Context, tenantID int64) ([]models.Admin, error) {
	query := staffSelect + ` WHERE u.tenant_id = $1 AND u.role IN ($2, $3, $4) AND u.active ORDER BY u.id`
	var rows []staffRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, models.RoleTenantAdmin, models.RoleSiteAdmin, models.RoleSuperAdmin); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	out := make([]models.Admin, len(rows))
	for i, row := range rows {
		out[i] = row.admin()
	}
	return out, nil
}

func (r *StaffRepository) get(ctx context.Context, id string, role models.UserRole) (*staffRow, error) {
	query := staffSelect + ` WHERE u.id = $1 AND u.active`
	args := []interface{}{id}
	if role != "" {
		query += ` AND u.role = $2`
		args = append(args, role)
	}
	var row staffRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get staff member: %w", err)
	}
	return &row, nil
}
