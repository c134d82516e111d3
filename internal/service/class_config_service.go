package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
)

type classConfigRepository interface {
	List(ctx context.Context) (map[string]*models.ClassConfig, error)
	FindByClass(ctx context.Context, classID string) (*models.ClassConfig, error)
	Upsert(ctx context.Context, cfg *models.ClassConfig) (*models.ClassConfig, error)
}

// UpsertClassConfigRequest holds the calendar and grace settings for a class.
type UpsertClassConfigRequest struct {
	Name                 string            `json:"name"`
	StudyDays            []string          `json:"study_days" validate:"dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Shifts               models.ShiftTimes `json:"shifts"`
	StandardGraceMinutes int               `json:"standard_grace_minutes" validate:"gte=0"`
	ExtendedGraceMinutes int               `json:"extended_grace_minutes" validate:"gte=0"`
}

// ClassConfigService manages per-class calendar and grace configuration.
type ClassConfigService struct {
	repo      classConfigRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassConfigService constructs the class config service.
func NewClassConfigService(repo classConfigRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterAttendanceValidations(validate)
	return &ClassConfigService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every class config keyed by class id.
func (s *ClassConfigService) List(ctx context.Context) (map[string]*models.ClassConfig, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class configs")
	}
	return configs, nil
}

// Get returns one class config.
func (s *ClassConfigService) Get(ctx context.Context, classID string) (*models.ClassConfig, error) {
	cfg, err := s.repo.FindByClass(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class config")
	}
	return cfg, nil
}

// Upsert writes the class configuration and drops cached statuses derived
// from the previous settings.
func (s *ClassConfigService) Upsert(ctx context.Context, classID string, req UpsertClassConfigRequest) (*models.ClassConfig, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class config payload")
	}
	for _, clock := range []string{req.Shifts.Morning, req.Shifts.Afternoon, req.Shifts.Evening} {
		if clock == "" {
			continue
		}
		if _, err := models.ParseClock(clock); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "shift starts must be HH:MM")
		}
	}

	stored, err := s.repo.Upsert(ctx, &models.ClassConfig{
		ClassID:              classID,
		Name:                 req.Name,
		StudyDays:            pq.StringArray(req.StudyDays),
		Shifts:               req.Shifts,
		StandardGraceMinutes: req.StandardGraceMinutes,
		ExtendedGraceMinutes: req.ExtendedGraceMinutes,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store class config")
	}

	if s.cache.Enabled() {
		// derived statuses and rankings may change under the new settings
		for _, pattern := range []string{"attendance:*", "roster:" + classID + ":*", "leaderboard:" + classID + ":*"} {
			if err := s.cache.Invalidate(ctx, pattern); err != nil {
				s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
	s.logger.Info("class config stored", zap.String("class_id", classID))
	return stored, nil
}
