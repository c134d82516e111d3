package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	"github.com/sekolah-digital/ops-api/internal/repository"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
)

type mockStudentFinder struct {
	student     *models.Student
	err         error
	assignments []models.MonthlyAssignment
}

func (m *mockStudentFinder) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

func (m *mockStudentFinder) MonthlyAssignments(ctx context.Context, studentID, month string) ([]models.MonthlyAssignment, error) {
	return m.assignments, nil
}

type mockConfigFinder struct {
	cfg *models.ClassConfig
	err error
}

func (m *mockConfigFinder) FindByClass(ctx context.Context, classID string) (*models.ClassConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cfg, nil
}

type mockAttendanceWriter struct {
	err   error
	saved *models.RawAttendanceRecord
}

func (m *mockAttendanceWriter) Upsert(ctx context.Context, record *models.RawAttendanceRecord) (*models.RawAttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = record
	return record, nil
}

func markStudent() *models.Student {
	return &models.Student{
		ID:             "stu-1",
		NIS:            "2024001",
		FullName:       "Siti Rahma",
		ClassID:        "X-A",
		Shift:          models.ShiftMorning,
		ScheduleType:   models.ScheduleFixed,
		EnrollmentDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
}

func markConfig() *models.ClassConfig {
	return &models.ClassConfig{
		ClassID:              "X-A",
		StudyDays:            []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Shifts:               models.ShiftTimes{Morning: "07:00", Afternoon: "13:00"},
		StandardGraceMinutes: 15,
		ExtendedGraceMinutes: 30,
	}
}

func newMarkService(students *mockStudentFinder, configs *mockConfigFinder, records *mockAttendanceWriter) *AttendanceService {
	svc := NewAttendanceService(students, configs, records, nil, nil, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2025, 3, 10, 7, 10, 0, 0, time.UTC)
	}
	return svc
}

func TestMarkWithinGraceIsPresent(t *testing.T) {
	records := &mockAttendanceWriter{}
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, records)

	stored, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "face-scan",
		TimeIn:    "07:15",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordedPresent, stored.Status)
	assert.Equal(t, "X-A", stored.ClassID)
	assert.Equal(t, models.ShiftMorning, stored.Shift)
	require.NotNil(t, records.saved.TimeIn)
	assert.Equal(t, "07:15", *records.saved.TimeIn)
}

func TestMarkPastGraceIsLate(t *testing.T) {
	records := &mockAttendanceWriter{}
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, records)

	stored, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "face-scan",
		TimeIn:    "07:16",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordedLate, stored.Status)
}

func TestMarkZeroOverrideLeavesNoGrace(t *testing.T) {
	student := markStudent()
	zero := 0
	student.GracePeriodMinutes = &zero
	records := &mockAttendanceWriter{}
	svc := newMarkService(&mockStudentFinder{student: student}, &mockConfigFinder{cfg: markConfig()}, records)

	stored, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "manual",
		TimeIn:    "07:01",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordedLate, stored.Status)
}

func TestMarkDefaultsToServerClock(t *testing.T) {
	records := &mockAttendanceWriter{}
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, records)

	stored, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "face-scan",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", stored.Date.Format("2006-01-02"))
	require.NotNil(t, stored.TimeIn)
	assert.Equal(t, "07:10", *stored.TimeIn)
	assert.Equal(t, models.RecordedPresent, stored.Status)
}

func TestMarkRequestMethodStoresRequested(t *testing.T) {
	records := &mockAttendanceWriter{}
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, records)

	stored, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "request",
		TimeIn:    "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordedRequested, stored.Status)
}

func TestMarkRotatingStudentUsesMonthAssignment(t *testing.T) {
	student := markStudent()
	student.ScheduleType = models.ScheduleFlipFlop
	students := &mockStudentFinder{
		student: student,
		assignments: []models.MonthlyAssignment{
			{StudentID: "stu-1", Month: "2025-03", ClassID: "X-B", Shift: models.ShiftAfternoon},
		},
	}
	cfg := markConfig()
	cfg.ClassID = "X-B"
	records := &mockAttendanceWriter{}
	svc := newMarkService(students, &mockConfigFinder{cfg: cfg}, records)

	stored, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "face-scan",
		TimeIn:    "13:05",
	})
	require.NoError(t, err)
	assert.Equal(t, "X-B", stored.ClassID)
	assert.Equal(t, models.ShiftAfternoon, stored.Shift)
	assert.Equal(t, models.RecordedPresent, stored.Status)
}

func TestMarkUnknownStudent(t *testing.T) {
	svc := newMarkService(&mockStudentFinder{err: sql.ErrNoRows}, &mockConfigFinder{cfg: markConfig()}, &mockAttendanceWriter{})

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "ghost", Method: "face-scan"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkInvalidMethodRejected(t *testing.T) {
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, &mockAttendanceWriter{})

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "stu-1", Method: "telepathy"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkWriteConflictIsRetryable(t *testing.T) {
	records := &mockAttendanceWriter{err: repository.ErrWriteConflict}
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, records)

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "face-scan",
		TimeIn:    "07:05",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRetryableConflict.Code, appErrors.FromError(err).Code)
}

func TestMarkStoreFailureIsInternal(t *testing.T) {
	records := &mockAttendanceWriter{err: errors.New("connection reset")}
	svc := newMarkService(&mockStudentFinder{student: markStudent()}, &mockConfigFinder{cfg: markConfig()}, records)

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "stu-1",
		Method:    "face-scan",
		TimeIn:    "07:05",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
