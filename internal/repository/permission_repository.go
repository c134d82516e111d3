package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sekolah-digital/ops-api/internal/models"
)

// PermissionRepository handles persistence for leave permission records.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository constructs the repository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const permissionColumns = `id, student_id, start_date, end_date, reason, status, created_at, updated_at`

// Create stores a new pending permission request.
func (r *PermissionRepository) Create(ctx context.Context, record *models.PermissionRecord) (*models.PermissionRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Status = models.PermissionPending
	record.CreatedAt = now
	record.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO permission_records (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING %s`, permissionColumns, permissionColumns)
	var stored models.PermissionRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.StartDate, record.EndDate, record.Reason, record.Status, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}
	return &stored, nil
}

// UpdateStatus flips a request to approved or rejected.
func (r *PermissionRepository) UpdateStatus(ctx context.Context, id string, status models.PermissionStatus) (*models.PermissionRecord, error) {
	query := fmt.Sprintf(`UPDATE permission_records SET status = $2, updated_at = $3
WHERE id = $1 RETURNING %s`, permissionColumns)
	var stored models.PermissionRecord
	if err := r.db.GetContext(ctx, &stored, query, id, status, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListApprovedCovering returns the student's approved permissions whose
// inclusive range intersects [from, to].
func (r *PermissionRepository) ListApprovedCovering(ctx context.Context, studentID string, from, to time.Time) ([]models.PermissionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM permission_records
WHERE student_id = $1 AND status = $2 AND start_date <= $4 AND end_date >= $3
ORDER BY start_date ASC`, permissionColumns)
	var rows []models.PermissionRecord
	if err := r.db.SelectContext(ctx, &rows, query, studentID, models.PermissionApproved, from, to); err != nil {
		return nil, fmt.Errorf("list approved permissions: %w", err)
	}
	return rows, nil
}

// List returns permissions matching the provided filter.
func (r *PermissionRepository) List(ctx context.Context, filter models.PermissionFilter) ([]models.PermissionRecord, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM permission_records WHERE %s
ORDER BY start_date DESC LIMIT %d OFFSET %d`, permissionColumns, whereClause, size, offset)
	var rows []models.PermissionRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM permission_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
	}
	return rows, total, nil
}
