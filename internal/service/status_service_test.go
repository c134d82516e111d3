package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
)

type stubStudentRepo struct {
	students    map[string]*models.Student
	cohort      []models.Student
	assignments []models.MonthlyAssignment
}

func (s *stubStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) MonthlyAssignments(ctx context.Context, studentID, month string) ([]models.MonthlyAssignment, error) {
	var out []models.MonthlyAssignment
	for _, a := range s.assignments {
		if a.StudentID == studentID && (month == "" || a.Month == month) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStudentRepo) ListByClassShift(ctx context.Context, classID string, shift models.Shift) ([]models.Student, error) {
	return s.cohort, nil
}

type stubConfigRepo struct {
	configs map[string]*models.ClassConfig
}

func (s *stubConfigRepo) List(ctx context.Context) (map[string]*models.ClassConfig, error) {
	return s.configs, nil
}

type stubAttendanceRepo struct {
	records []models.RawAttendanceRecord
}

func (s *stubAttendanceRepo) ListByStudentMonth(ctx context.Context, studentID string, from, to time.Time) ([]models.RawAttendanceRecord, error) {
	var out []models.RawAttendanceRecord
	for _, r := range s.records {
		if r.StudentID == studentID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubAttendanceRepo) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.RawAttendanceRecord, error) {
	var out []models.RawAttendanceRecord
	for _, r := range s.records {
		if r.ClassID == classID && r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubPermissionRepo struct {
	permissions []models.PermissionRecord
}

func (s *stubPermissionRepo) ListApprovedCovering(ctx context.Context, studentID string, from, to time.Time) ([]models.PermissionRecord, error) {
	var out []models.PermissionRecord
	for _, p := range s.permissions {
		if p.StudentID == studentID && p.Status == models.PermissionApproved && !p.StartDate.After(to) && !p.EndDate.Before(from) {
			out = append(out, p)
		}
	}
	return out, nil
}

func statusConfigs() map[string]*models.ClassConfig {
	return map[string]*models.ClassConfig{
		"X-A": {
			ClassID:              "X-A",
			StudyDays:            []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			Shifts:               models.ShiftTimes{Morning: "07:00", Afternoon: "13:00"},
			StandardGraceMinutes: 15,
			ExtendedGraceMinutes: 30,
		},
	}
}

func statusStudent() *models.Student {
	return &models.Student{
		ID:             "stu-1",
		NIS:            "2024001",
		FullName:       "Budi Santoso",
		ClassID:        "X-A",
		Shift:          models.ShiftMorning,
		ScheduleType:   models.ScheduleFixed,
		EnrollmentDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
}

func statusRecord(studentID, day, timeIn string, status models.RecordedStatus) models.RawAttendanceRecord {
	date, _ := time.Parse("2006-01-02", day)
	return models.RawAttendanceRecord{
		ID:        "rec-" + day,
		StudentID: studentID,
		Date:      date,
		Status:    status,
		TimeIn:    &timeIn,
		Method:    models.MethodFaceScan,
		ClassID:   "X-A",
		Shift:     models.ShiftMorning,
	}
}

func newStatusService(students *stubStudentRepo, attendance *stubAttendanceRepo, permissions *stubPermissionRepo) *StatusService {
	return NewStatusService(students, &stubConfigRepo{configs: statusConfigs()}, attendance, permissions, nil, nil, 0, zap.NewNop())
}

func TestStudentMonthResolvesEveryCalendarDay(t *testing.T) {
	students := &stubStudentRepo{students: map[string]*models.Student{"stu-1": statusStudent()}}
	attendance := &stubAttendanceRepo{records: []models.RawAttendanceRecord{
		// Monday 2025-03-03 within grace, Tuesday 2025-03-04 late
		statusRecord("stu-1", "2025-03-03", "07:10", models.RecordedPresent),
		statusRecord("stu-1", "2025-03-04", "07:30", models.RecordedPresent),
	}}
	permissions := &stubPermissionRepo{permissions: []models.PermissionRecord{{
		ID:        "perm-1",
		StudentID: "stu-1",
		StartDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Status:    models.PermissionApproved,
	}}}
	svc := newStatusService(students, attendance, permissions)

	view, err := svc.StudentMonth(context.Background(), "stu-1", "2025-03")
	require.NoError(t, err)
	assert.Len(t, view.Days, 31)
	assert.Equal(t, "X-A", view.ClassID)

	byDate := map[string]models.DailyStatus{}
	for _, d := range view.Days {
		byDate[d.Date] = d
	}
	assert.Equal(t, models.StatusNoSchool, byDate["2025-03-02"].Status) // Sunday
	assert.Equal(t, models.StatusPresent, byDate["2025-03-03"].Status)
	assert.Equal(t, models.StatusLate, byDate["2025-03-04"].Status)
	assert.Equal(t, models.StatusPermission, byDate["2025-03-05"].Status)
	assert.Equal(t, models.StatusAbsent, byDate["2025-03-06"].Status)
}

func TestStudentMonthComputesAverage(t *testing.T) {
	students := &stubStudentRepo{students: map[string]*models.Student{"stu-1": statusStudent()}}
	attendance := &stubAttendanceRepo{records: []models.RawAttendanceRecord{
		statusRecord("stu-1", "2025-03-03", "07:05", models.RecordedPresent), // +5
		statusRecord("stu-1", "2025-03-04", "06:57", models.RecordedPresent), // -3
		statusRecord("stu-1", "2025-03-05", "07:10", models.RecordedPresent), // +10
	}}
	svc := newStatusService(students, attendance, &stubPermissionRepo{})

	view, err := svc.StudentMonth(context.Background(), "stu-1", "2025-03")
	require.NoError(t, err)
	require.NotNil(t, view.Average.RawMinutes)
	assert.InDelta(t, 4.0, *view.Average.RawMinutes, 0.001)
	assert.Equal(t, "4 min late", view.Average.Label)
	assert.Equal(t, 3, view.Average.Samples)
}

func TestStudentMonthEmptyMonthIsNA(t *testing.T) {
	students := &stubStudentRepo{students: map[string]*models.Student{"stu-1": statusStudent()}}
	svc := newStatusService(students, &stubAttendanceRepo{}, &stubPermissionRepo{})

	view, err := svc.StudentMonth(context.Background(), "stu-1", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, models.AverageArrivalNA, view.Average.Label)
	assert.Nil(t, view.Average.RawMinutes)
}

func TestStudentMonthInvalidMonth(t *testing.T) {
	svc := newStatusService(&stubStudentRepo{}, &stubAttendanceRepo{}, &stubPermissionRepo{})

	_, err := svc.StudentMonth(context.Background(), "stu-1", "March-2025")
	require.Error(t, err)
}

func TestClassDaySummarisesRoster(t *testing.T) {
	early := statusStudent()
	absent := statusStudent()
	absent.ID = "stu-2"
	absent.NIS = "2024002"
	absent.FullName = "Citra Lestari"
	students := &stubStudentRepo{
		students: map[string]*models.Student{"stu-1": early, "stu-2": absent},
		cohort:   []models.Student{*early, *absent},
	}
	attendance := &stubAttendanceRepo{records: []models.RawAttendanceRecord{
		statusRecord("stu-1", "2025-03-03", "07:05", models.RecordedPresent),
	}}
	svc := newStatusService(students, attendance, &stubPermissionRepo{})

	view, err := svc.ClassDay(context.Background(), "X-A", models.ShiftMorning, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, 1, view.Summary[models.StatusPresent])
	assert.Equal(t, 1, view.Summary[models.StatusAbsent])
}

func TestClassDayAnomalyRecordedInMetrics(t *testing.T) {
	student := statusStudent()
	students := &stubStudentRepo{
		students: map[string]*models.Student{"stu-1": student},
		cohort:   []models.Student{*student},
	}
	record := statusRecord("stu-1", "2025-03-03", "", models.RecordedPresent)
	record.TimeIn = nil
	attendance := &stubAttendanceRepo{records: []models.RawAttendanceRecord{record}}
	metrics := NewMetricsService()
	svc := NewStatusService(students, &stubConfigRepo{configs: statusConfigs()}, attendance, &stubPermissionRepo{}, nil, metrics, 0, zap.NewNop())

	view, err := svc.ClassDay(context.Background(), "X-A", models.ShiftMorning, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.True(t, view.Entries[0].Resolved.Anomaly)
	// zero deviation fallback resolves within grace
	assert.Equal(t, models.StatusPresent, view.Entries[0].Resolved.Status)
	assert.Equal(t, uint64(1), metrics.Snapshot().ResolverAnomalies)
}
