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

type permissionRepository interface {
	Create(ctx context.Context, record *models.PermissionRecord) (*models.PermissionRecord, error)
	UpdateStatus(ctx context.Context, id string, status models.PermissionStatus) (*models.PermissionRecord, error)
	List(ctx context.Context, filter models.PermissionFilter) ([]models.PermissionRecord, int, error)
}

// CreatePermissionRequest holds a leave request covering an inclusive range.
type CreatePermissionRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    *string   `json:"reason"`
}

// ReviewPermissionRequest approves or rejects a pending request.
type ReviewPermissionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// PermissionService manages leave permission requests. Approval is the only
// thing that makes a permission visible to status resolution.
type PermissionService struct {
	repo      permissionRepository
	students  studentFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPermissionService constructs the permission service.
func NewPermissionService(repo permissionRepository, students studentFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PermissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{repo: repo, students: students, cache: cache, validator: validate, logger: logger}
}

// Create files a pending leave request.
func (s *PermissionService) Create(ctx context.Context, req CreatePermissionRequest) (*models.PermissionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	stored, err := s.repo.Create(ctx, &models.PermissionRecord{
		StudentID: req.StudentID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create permission")
	}
	s.logger.Info("permission requested",
		zap.String("permission_id", stored.ID),
		zap.String("student_id", stored.StudentID),
	)
	return stored, nil
}

// Review approves or rejects a request. Only approved permissions influence
// resolved statuses, so approvals invalidate the student's cached months.
func (s *PermissionService) Review(ctx context.Context, id string, req ReviewPermissionRequest) (*models.PermissionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	stored, err := s.repo.UpdateStatus(ctx, id, models.PermissionStatus(req.Status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review permission")
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "attendance:"+stored.StudentID+":*"); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("student_id", stored.StudentID), zap.Error(err))
		}
	}
	s.logger.Info("permission reviewed",
		zap.String("permission_id", stored.ID),
		zap.String("status", string(stored.Status)),
	)
	return stored, nil
}

// List returns permissions matching the filter plus pagination metadata.
func (s *PermissionService) List(ctx context.Context, filter models.PermissionFilter) ([]models.PermissionRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
