package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/repository"
	"github.com/sekolah-digital/ops-api/internal/resolver"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
)

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	MonthlyAssignments(ctx context.Context, studentID string, month string) ([]models.MonthlyAssignment, error)
}

type classConfigFinder interface {
	FindByClass(ctx context.Context, classID string) (*models.ClassConfig, error)
}

type attendanceWriter interface {
	Upsert(ctx context.Context, record *models.RawAttendanceRecord) (*models.RawAttendanceRecord, error)
}

// AttendanceService turns capture events into persisted raw attendance
// records using the same grace logic the resolver applies on reads.
type AttendanceService struct {
	students  studentFinder
	configs   classConfigFinder
	records   attendanceWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(students studentFinder, configs classConfigFinder, records attendanceWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{
		students:  students,
		configs:   configs,
		records:   records,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	RegisterAttendanceValidations(svc.validator)
	return svc
}

// RegisterAttendanceValidations installs the custom enum/clock validators
// used by attendance payloads.
func RegisterAttendanceValidations(v *validator.Validate) {
	v.RegisterValidation("capture_method", func(fl validator.FieldLevel) bool {
		return models.CaptureMethod(fl.Field().String()).Valid()
	})
	v.RegisterValidation("shift", func(fl validator.FieldLevel) bool {
		return models.Shift(fl.Field().String()).Valid()
	})
	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClock(fl.Field().String())
		return err == nil
	})
}

// MarkAttendanceRequest describes an incoming capture event.
type MarkAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Method    string `json:"method" validate:"required,capture_method"`
	// Date and TimeIn default to the server clock when omitted, which is the
	// normal path for live face-scan captures.
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TimeIn string `json:"time_in" validate:"omitempty,clock"`
}

// Mark classifies a capture against the shift start and grace window and
// persists it. The existence-check-and-write is a single conditional upsert,
// so duplicate scans update in place instead of racing into two rows; a
// conflicting concurrent write surfaces as a retryable error and is never
// retried here.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.RawAttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capture payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	now := s.now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
		}
	}
	timeIn := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	if req.TimeIn != "" {
		timeIn = req.TimeIn
	}

	month := resolver.MonthKey(date)
	assignments, err := s.students.MonthlyAssignments(ctx, student.ID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly assignment")
	}
	classID, shift := student.AssignmentFor(month, assignments)

	cfg, err := s.configs.FindByClass(ctx, classID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class config")
	}

	status := s.classify(*student, cfg, shift, timeIn, models.CaptureMethod(req.Method))

	captured := now
	record := &models.RawAttendanceRecord{
		StudentID: student.ID,
		Date:      date,
		Status:    status,
		TimeIn:    &timeIn,
		Timestamp: &captured,
		Method:    models.CaptureMethod(req.Method),
		ClassID:   classID,
		Shift:     shift,
	}

	stored, err := s.records.Upsert(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrWriteConflict) {
			return nil, appErrors.Wrap(err, appErrors.ErrRetryableConflict.Code, appErrors.ErrRetryableConflict.Status, appErrors.ErrRetryableConflict.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist capture")
	}

	s.invalidate(ctx, student.ID, classID, month)

	s.logger.Info("attendance captured",
		zap.String("student_id", student.ID),
		zap.String("date", stored.Date.Format("2006-01-02")),
		zap.String("status", string(stored.Status)),
		zap.String("method", string(stored.Method)),
	)
	return stored, nil
}

// classify applies the grace comparison at capture time. Request-method
// captures are stored as requested and classified later by staff.
func (s *AttendanceService) classify(student models.Student, cfg *models.ClassConfig, shift models.Shift, timeIn string, method models.CaptureMethod) models.RecordedStatus {
	if method == models.MethodRequest {
		return models.RecordedRequested
	}
	start := ""
	if cfg != nil {
		start = cfg.Shifts.Start(shift)
	}
	if start == "" {
		// no shift start to compare against; store as present and let the
		// read path surface the configuration gap
		s.logger.Warn("missing shift start at capture", zap.String("student_id", student.ID), zap.String("shift", string(shift)))
		return models.RecordedPresent
	}
	startMin, err := models.ParseClock(start)
	if err != nil {
		return models.RecordedPresent
	}
	inMin, err := models.ParseClock(timeIn)
	if err != nil {
		return models.RecordedPresent
	}
	if inMin-startMin <= resolver.EffectiveGrace(student, cfg) {
		return models.RecordedPresent
	}
	return models.RecordedLate
}

func (s *AttendanceService) invalidate(ctx context.Context, studentID, classID, month string) {
	if !s.cache.Enabled() {
		return
	}
	patterns := []string{
		fmt.Sprintf("attendance:%s:*", studentID),
		fmt.Sprintf("leaderboard:%s:*:%s", classID, month),
		fmt.Sprintf("roster:%s:*", classID),
	}
	for _, p := range patterns {
		if err := s.cache.Invalidate(ctx, p); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", p), zap.Error(err))
		}
	}
}
