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

// StudentRepository handles persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filter.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(s.full_name ILIKE $%d OR s.nis ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Shift != nil && filter.Shift.Valid() {
		where = append(where, fmt.Sprintf("s.shift = $%d", len(args)+1))
		args = append(args, *filter.Shift)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"name":            "s.full_name",
		"nis":             "s.nis",
		"enrollment_date": "s.enrollment_date",
		"created_at":      "s.created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "s.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.nis, s.full_name, s.class_id, s.shift, s.schedule_type, s.grace_period_minutes, s.enrollment_date, s.active, s.created_at, s.updated_at
        FROM students s WHERE %s
        ORDER BY %s %s
        LIMIT %d OFFSET %d`, whereClause, sortColumn, order, size, offset)

	var rows []models.Student
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students s WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return rows, total, nil
}

// FindByID loads a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT id, nis, full_name, class_id, shift, schedule_type, grace_period_minutes, enrollment_date, active, created_at, updated_at
FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByNIS checks whether a student with the NIS exists, optionally
// excluding one id.
func (r *StudentRepository) ExistsByNIS(ctx context.Context, nis string, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE nis = $1 AND ($2 = '' OR id <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, nis, excludeID); err != nil {
		return false, fmt.Errorf("check nis: %w", err)
	}
	return exists, nil
}

// Create inserts a student row.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	query := `INSERT INTO students (id, nis, full_name, class_id, shift, schedule_type, grace_period_minutes, enrollment_date, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.NIS, student.FullName, student.ClassID, student.Shift, student.ScheduleType, student.GracePeriodMinutes, student.EnrollmentDate, student.Active, student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites a student row.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	query := `UPDATE students SET nis = $2, full_name = $3, class_id = $4, shift = $5, schedule_type = $6, grace_period_minutes = $7, enrollment_date = $8, active = $9, updated_at = $10
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.NIS, student.FullName, student.ClassID, student.Shift, student.ScheduleType, student.GracePeriodMinutes, student.EnrollmentDate, student.Active, student.UpdatedAt); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Deactivate marks a student inactive without deleting history.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// ListByClassShift returns active students in one class/shift cohort.
func (r *StudentRepository) ListByClassShift(ctx context.Context, classID string, shift models.Shift) ([]models.Student, error) {
	query := `SELECT id, nis, full_name, class_id, shift, schedule_type, grace_period_minutes, enrollment_date, active, created_at, updated_at
FROM students WHERE class_id = $1 AND shift = $2 AND active ORDER BY full_name ASC`
	var rows []models.Student
	if err := r.db.SelectContext(ctx, &rows, query, classID, shift); err != nil {
		return nil, fmt.Errorf("list cohort students: %w", err)
	}
	return rows, nil
}

// MonthlyAssignments loads rotation rows for a student. Pass an empty month
// to fetch all of them.
func (r *StudentRepository) MonthlyAssignments(ctx context.Context, studentID string, month string) ([]models.MonthlyAssignment, error) {
	query := `SELECT id, student_id, month, class_id, shift, created_at
FROM monthly_assignments WHERE student_id = $1 AND ($2 = '' OR month = $2) ORDER BY month ASC`
	var rows []models.MonthlyAssignment
	if err := r.db.SelectContext(ctx, &rows, query, studentID, month); err != nil {
		return nil, fmt.Errorf("list monthly assignments: %w", err)
	}
	return rows, nil
}

// UpsertMonthlyAssignment records the class/shift rotation for one month.
func (r *StudentRepository) UpsertMonthlyAssignment(ctx context.Context, assignment *models.MonthlyAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now().UTC()
	query := `INSERT INTO monthly_assignments (id, student_id, month, class_id, shift, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_id, month)
DO UPDATE SET class_id = EXCLUDED.class_id, shift = EXCLUDED.shift`
	if _, err := r.db.ExecContext(ctx, query, assignment.ID, assignment.StudentID, assignment.Month, assignment.ClassID, assignment.Shift, assignment.CreatedAt); err != nil {
		return fmt.Errorf("upsert monthly assignment: %w", err)
	}
	return nil
}
