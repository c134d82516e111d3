package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByNIS(ctx context.Context, nis string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
	UpsertMonthlyAssignment(ctx context.Context, assignment *models.MonthlyAssignment) error
	MonthlyAssignments(ctx context.Context, studentID string, month string) ([]models.MonthlyAssignment, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	NIS                string    `json:"nis" validate:"required"`
	FullName           string    `json:"full_name" validate:"required"`
	ClassID            string    `json:"class_id" validate:"required"`
	Shift              string    `json:"shift" validate:"required,shift"`
	ScheduleType       string    `json:"schedule_type" validate:"required"`
	GracePeriodMinutes *int      `json:"grace_period_minutes" validate:"omitempty,gte=0"`
	EnrollmentDate     time.Time `json:"enrollment_date" validate:"required"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	NIS                string    `json:"nis" validate:"required"`
	FullName           string    `json:"full_name" validate:"required"`
	ClassID            string    `json:"class_id" validate:"required"`
	Shift              string    `json:"shift" validate:"required,shift"`
	ScheduleType       string    `json:"schedule_type" validate:"required"`
	GracePeriodMinutes *int      `json:"grace_period_minutes" validate:"omitempty,gte=0"`
	EnrollmentDate     time.Time `json:"enrollment_date" validate:"required"`
	Active             bool      `json:"active"`
}

// AssignMonthRequest records a flip-flop rotation for one month.
type AssignMonthRequest struct {
	Month   string `json:"month" validate:"required,len=7"`
	ClassID string `json:"class_id" validate:"required"`
	Shift   string `json:"shift" validate:"required,shift"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterAttendanceValidations(validate)
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !models.ScheduleType(req.ScheduleType).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid schedule type")
	}
	exists, err := s.repo.ExistsByNIS(ctx, req.NIS, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nis")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nis already used")
	}
	student := &models.Student{
		NIS:                req.NIS,
		FullName:           req.FullName,
		ClassID:            req.ClassID,
		Shift:              models.Shift(req.Shift),
		ScheduleType:       models.ScheduleType(req.ScheduleType),
		GracePeriodMinutes: req.GracePeriodMinutes,
		EnrollmentDate:     req.EnrollmentDate,
		Active:             true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("nis", student.NIS))
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !models.ScheduleType(req.ScheduleType).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid schedule type")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByNIS(ctx, req.NIS, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nis")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nis already used")
	}
	student.NIS = req.NIS
	student.FullName = req.FullName
	student.ClassID = req.ClassID
	student.Shift = models.Shift(req.Shift)
	student.ScheduleType = models.ScheduleType(req.ScheduleType)
	student.GracePeriodMinutes = req.GracePeriodMinutes
	student.EnrollmentDate = req.EnrollmentDate
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidateStudent(ctx, student.ID)
	return student, nil
}

// Deactivate retires a student while preserving attendance history.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	s.invalidateStudent(ctx, id)
	return nil
}

// AssignMonth records the class/shift rotation for one month. Only rotating
// students carry monthly assignments.
func (s *StudentService) AssignMonth(ctx context.Context, studentID string, req AssignMonthRequest) (*models.MonthlyAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.ScheduleType != models.ScheduleFlipFlop {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student does not rotate monthly")
	}
	assignment := &models.MonthlyAssignment{
		StudentID: student.ID,
		Month:     req.Month,
		ClassID:   req.ClassID,
		Shift:     models.Shift(req.Shift),
	}
	if err := s.repo.UpsertMonthlyAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store monthly assignment")
	}
	s.invalidateStudent(ctx, student.ID)
	return assignment, nil
}

// Assignments lists a student's rotation history.
func (s *StudentService) Assignments(ctx context.Context, studentID string) ([]models.MonthlyAssignment, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.MonthlyAssignments(ctx, studentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list monthly assignments")
	}
	return assignments, nil
}

func (s *StudentService) invalidateStudent(ctx context.Context, studentID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "attendance:"+studentID+":*"); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
