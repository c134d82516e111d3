package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/resolver"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
)

type insightStudentRepo interface {
	ListByClassShift(ctx context.Context, classID string, shift models.Shift) ([]models.Student, error)
}

type insightAttendanceRepo interface {
	ListByStudentsMonth(ctx context.Context, studentIDs []string, from, to time.Time) ([]models.RawAttendanceRecord, error)
}

// ClassLeaderboard is the ranked arrival summary for one class/shift cohort
// in one month.
type ClassLeaderboard struct {
	ClassID string               `json:"class_id"`
	Shift   models.Shift         `json:"shift"`
	Month   string               `json:"month"`
	Board   resolver.Leaderboard `json:"board"`
	Cohort  int                  `json:"cohort_size"`
}

// InsightService computes cohort-level arrival insights. Rankings are
// recomputed from raw records on every miss; results are cached per
// (class, shift, month).
type InsightService struct {
	students   insightStudentRepo
	configs    statusConfigRepo
	attendance insightAttendanceRepo
	cache      *CacheService
	cacheTTL   time.Duration
	topN       int
	logger     *zap.Logger
}

// NewInsightService constructs the insight service.
func NewInsightService(students insightStudentRepo, configs statusConfigRepo, attendance insightAttendanceRepo, cache *CacheService, cacheTTL time.Duration, topN int, logger *zap.Logger) *InsightService {
	if topN <= 0 {
		topN = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightService{
		students:   students,
		configs:    configs,
		attendance: attendance,
		cache:      cache,
		cacheTTL:   cacheTTL,
		topN:       topN,
		logger:     logger,
	}
}

// Leaderboard ranks a cohort by signed monthly average arrival and returns
// the earliest and latest extremes. Students without a computable average for
// the month are excluded from the board but still counted in the cohort size.
func (s *InsightService) Leaderboard(ctx context.Context, classID string, shift models.Shift, month string) (*ClassLeaderboard, error) {
	if !shift.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid shift")
	}
	from, to, err := monthWindow(month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%s:%s", classID, shift, month)
	var cached ClassLeaderboard
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

	ids := make([]string, 0, len(cohort))
	for _, st := range cohort {
		ids = append(ids, st.ID)
	}
	records, err := s.attendance.ListByStudentsMonth(ctx, ids, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	byStudent := make(map[string][]models.RawAttendanceRecord, len(cohort))
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	entries := make([]resolver.CohortEntry, 0, len(cohort))
	for _, st := range cohort {
		entries = append(entries, resolver.CohortEntry{
			StudentID: st.ID,
			FullName:  st.FullName,
			Average:   resolver.AverageArrival(byStudent[st.ID], month, configs),
		})
	}

	view := &ClassLeaderboard{
		ClassID: classID,
		Shift:   shift,
		Month:   month,
		Board:   resolver.RankCohort(entries, s.topN),
		Cohort:  len(cohort),
	}

	if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache leaderboard", zap.String("key", cacheKey), zap.Error(err))
	}
	return view, nil
}
