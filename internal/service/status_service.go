package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/resolver"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
)

type statusStudentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	MonthlyAssignments(ctx context.Context, studentID string, month string) ([]models.MonthlyAssignment, error)
	ListByClassShift(ctx context.Context, classID string, shift models.Shift) ([]models.Student, error)
}

type statusConfigRepo interface {
	List(ctx context.Context) (map[string]*models.ClassConfig, error)
}

type statusAttendanceRepo interface {
	ListByStudentMonth(ctx context.Context, studentID string, from, to time.Time) ([]models.RawAttendanceRecord, error)
	ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.RawAttendanceRecord, error)
}

type statusPermissionRepo interface {
	ListApprovedCovering(ctx context.Context, studentID string, from, to time.Time) ([]models.PermissionRecord, error)
}

// StudentMonthView is the resolved month for one student: one entry per
// calendar day plus the monthly arrival summary.
type StudentMonthView struct {
	StudentID string                `json:"student_id"`
	FullName  string                `json:"full_name"`
	ClassID   string                `json:"class_id"`
	Shift     models.Shift          `json:"shift"`
	Month     string                `json:"month"` // YYYY-MM
	Days      []models.DailyStatus  `json:"days"`
	Average   models.AverageArrival `json:"average_arrival"`
}

// ClassDayEntry is one student's resolved status inside a class-day roster.
type ClassDayEntry struct {
	StudentID string             `json:"student_id"`
	NIS       string             `json:"nis"`
	FullName  string             `json:"full_name"`
	Resolved  models.DailyStatus `json:"resolved"`
}

// ClassDayView is the resolved roster for one class/shift on one date.
type ClassDayView struct {
	ClassID string                   `json:"class_id"`
	Shift   models.Shift             `json:"shift"`
	Date    string                   `json:"date"` // YYYY-MM-DD
	Entries []ClassDayEntry          `json:"entries"`
	Summary map[models.DayStatus]int `json:"summary"`
}

// StatusService resolves derived daily statuses on demand. Nothing it
// produces is persisted; every response is recomputed from raw records,
// configuration and permissions, with a short-lived cache in front.
type StatusService struct {
	students    statusStudentRepo
	configs     statusConfigRepo
	attendance  statusAttendanceRepo
	permissions statusPermissionRepo
	cache       *CacheService
	metrics     *MetricsService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewStatusService constructs the status service.
func NewStatusService(students statusStudentRepo, configs statusConfigRepo, attendance statusAttendanceRepo, permissions statusPermissionRepo, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		students:    students,
		configs:     configs,
		attendance:  attendance,
		permissions: permissions,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// monthWindow returns the inclusive [first, last] day bounds of a YYYY-MM key.
func monthWindow(month string) (time.Time, time.Time, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse month %q: %w", month, err)
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}

// StudentMonth resolves every calendar day of the month for one student.
func (s *StatusService) StudentMonth(ctx context.Context, studentID, month string) (*StudentMonthView, error) {
	from, to, err := monthWindow(month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}

	cacheKey := fmt.Sprintf("attendance:%s:%s", studentID, month)
	var cached StudentMonthView
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configs")
	}
	records, err := s.attendance.ListByStudentMonth(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	permissions, err := s.permissions.ListApprovedCovering(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
	}
	assignments, err := s.students.MonthlyAssignments(ctx, studentID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly assignments")
	}

	byDate := make(map[string]*models.RawAttendanceRecord, len(records))
	for i := range records {
		byDate[records[i].Date.Format("2006-01-02")] = &records[i]
	}

	view := &StudentMonthView{
		StudentID: student.ID,
		FullName:  student.FullName,
		Month:     month,
	}
	view.ClassID, view.Shift = student.AssignmentFor(month, assignments)

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		resolved := resolver.ResolveDay(resolver.DayInput{
			Student:     *student,
			Date:        d,
			Record:      byDate[d.Format("2006-01-02")],
			Configs:     configs,
			Permissions: permissions,
			Assignments: assignments,
		})
		s.noteResolution(student.ID, resolved)
		view.Days = append(view.Days, resolved)
	}

	view.Average = resolver.AverageArrival(records, month, configs)

	if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache student month", zap.String("key", cacheKey), zap.Error(err))
	}
	return view, nil
}

// ClassDay resolves the roster of one class/shift cohort for a single date.
func (s *StatusService) ClassDay(ctx context.Context, classID string, shift models.Shift, date time.Time) (*ClassDayView, error) {
	if !shift.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid shift")
	}
	day := date.Format("2006-01-02")

	cacheKey := fmt.Sprintf("roster:%s:%s:%s", classID, shift, day)
	var cached ClassDayView
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	cohort, err := s.students.ListByClassShift(ctx, classID, shift)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configs")
	}
	records, err := s.attendance.ListByClassDate(ctx, classID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	byStudent := make(map[string]*models.RawAttendanceRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}

	month := resolver.MonthKey(date)
	view := &ClassDayView{
		ClassID: classID,
		Shift:   shift,
		Date:    day,
		Summary: make(map[models.DayStatus]int),
	}
	for _, student := range cohort {
		record := byStudent[student.ID]
		var permissions []models.PermissionRecord
		if record == nil {
			// permissions only matter for capture-less days
			permissions, err = s.permissions.ListApprovedCovering(ctx, student.ID, date, date)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
			}
		}
		var assignments []models.MonthlyAssignment
		if student.ScheduleType == models.ScheduleFlipFlop {
			assignments, err = s.students.MonthlyAssignments(ctx, student.ID, month)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly assignments")
			}
		}
		resolved := resolver.ResolveDay(resolver.DayInput{
			Student:     student,
			Date:        date,
			Record:      record,
			Configs:     configs,
			Permissions: permissions,
			Assignments: assignments,
		})
		s.noteResolution(student.ID, resolved)
		view.Entries = append(view.Entries, ClassDayEntry{
			StudentID: student.ID,
			NIS:       student.NIS,
			FullName:  student.FullName,
			Resolved:  resolved,
		})
		view.Summary[resolved.Status]++
	}

	if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache class day", zap.String("key", cacheKey), zap.Error(err))
	}
	return view, nil
}

// noteResolution surfaces malformed-record fallbacks in logs and metrics.
func (s *StatusService) noteResolution(studentID string, resolved models.DailyStatus) {
	if !resolved.Anomaly {
		return
	}
	s.metrics.RecordResolverAnomaly()
	s.logger.Warn("attendance record resolved through anomaly fallback",
		zap.String("student_id", studentID),
		zap.String("date", resolved.Date),
		zap.String("status", string(resolved.Status)),
	)
}
