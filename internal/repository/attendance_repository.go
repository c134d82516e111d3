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

	"github.com/sekolah-digital/ops-api/internal/models"
)

// ErrWriteConflict signals a concurrent conflicting write on the same
// (student, date) record. Callers decide whether to retry.
var ErrWriteConflict = errors.New("attendance write conflict")

// AttendanceRepository handles persistence for raw attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, date, status, time_in, captured_at, method, class_id, shift, created_at, updated_at`

// FindByStudentDate returns the record for one (student, date) pair, or nil
// when none exists.
func (r *AttendanceRepository) FindByStudentDate(ctx context.Context, studentID string, date time.Time) (*models.RawAttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE student_id = $1 AND date = $2`, attendanceColumns)
	var record models.RawAttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

// ListByStudentMonth returns all records for a student whose date falls in
// the given month window [from, to].
func (r *AttendanceRepository) ListByStudentMonth(ctx context.Context, studentID string, from, to time.Time) ([]models.RawAttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`, attendanceColumns)
	var rows []models.RawAttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list student month attendance: %w", err)
	}
	return rows, nil
}

// ListByClassDate returns every record captured under the class on one date.
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.RawAttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE class_id = $1 AND date = $2 ORDER BY student_id ASC`, attendanceColumns)
	var rows []models.RawAttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, classID, date); err != nil {
		return nil, fmt.Errorf("list class date attendance: %w", err)
	}
	return rows, nil
}

// ListByStudentsMonth returns records for a set of students inside the month
// window, for cohort-wide averaging.
func (r *AttendanceRepository) ListByStudentsMonth(ctx context.Context, studentIDs []string, from, to time.Time) ([]models.RawAttendanceRecord, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE student_id = ANY($1) AND date >= $2 AND date <= $3 ORDER BY student_id, date ASC`, attendanceColumns)
	var rows []models.RawAttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(studentIDs), from, to); err != nil {
		return nil, fmt.Errorf("list cohort month attendance: %w", err)
	}
	return rows, nil
}

// Upsert writes the capture as a single conditional statement so that two
// near-simultaneous captures for the same (student, date) cannot race into
// duplicate rows; the second write lands as an update on the first.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.RawAttendanceRecord) (*models.RawAttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO attendance_records (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (student_id, date)
DO UPDATE SET status = EXCLUDED.status, time_in = EXCLUDED.time_in, captured_at = EXCLUDED.captured_at,
    method = EXCLUDED.method, class_id = EXCLUDED.class_id, shift = EXCLUDED.shift, updated_at = EXCLUDED.updated_at
RETURNING %s`, attendanceColumns, attendanceColumns)

	var stored models.RawAttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.Date, record.Status, record.TimeIn, record.Timestamp,
		record.Method, record.ClassID, record.Shift, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("upsert attendance record: %w", ErrWriteConflict)
		}
		return nil, fmt.Errorf("upsert attendance record: %w", err)
	}
	return &stored, nil
}

// isSerializationFailure detects retryable concurrency errors from postgres:
// serialization failures, deadlocks, and the unique-violation window two
// concurrent upserts can still hit.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return true
		}
	}
	return strings.Contains(err.Error(), "could not serialize access")
}
