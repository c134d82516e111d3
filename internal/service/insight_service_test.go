package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
)

type stubCohortRepo struct {
	cohort []models.Student
}

func (s *stubCohortRepo) ListByClassShift(ctx context.Context, classID string, shift models.Shift) ([]models.Student, error) {
	return s.cohort, nil
}

type stubCohortAttendance struct {
	records []models.RawAttendanceRecord
}

func (s *stubCohortAttendance) ListByStudentsMonth(ctx context.Context, studentIDs []string, from, to time.Time) ([]models.RawAttendanceRecord, error) {
	return s.records, nil
}

func cohortStudent(id, name string) models.Student {
	return models.Student{
		ID:             id,
		FullName:       name,
		ClassID:        "X-A",
		Shift:          models.ShiftMorning,
		ScheduleType:   models.ScheduleFixed,
		EnrollmentDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
}

func cohortRecord(studentID, day, timeIn string) models.RawAttendanceRecord {
	date, _ := time.Parse("2006-01-02", day)
	return models.RawAttendanceRecord{
		StudentID: studentID,
		Date:      date,
		Status:    models.RecordedPresent,
		TimeIn:    &timeIn,
		Method:    models.MethodFaceScan,
		ClassID:   "X-A",
		Shift:     models.ShiftMorning,
	}
}

func TestLeaderboardRanksExtremes(t *testing.T) {
	students := &stubCohortRepo{cohort: []models.Student{
		cohortStudent("stu-1", "Adi"),
		cohortStudent("stu-2", "Bunga"),
		cohortStudent("stu-3", "Candra"),
		cohortStudent("stu-4", "Dewi"),
	}}
	attendance := &stubCohortAttendance{records: []models.RawAttendanceRecord{
		cohortRecord("stu-1", "2025-03-03", "06:50"), // -10
		cohortRecord("stu-2", "2025-03-03", "07:05"), // +5
		cohortRecord("stu-3", "2025-03-03", "07:25"), // +25
		// stu-4 has no records: excluded from the board
	}}
	svc := NewInsightService(students, &stubConfigRepo{configs: statusConfigs()}, attendance, nil, 0, 2, zap.NewNop())

	view, err := svc.Leaderboard(context.Background(), "X-A", models.ShiftMorning, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 4, view.Cohort)
	require.Len(t, view.Board.Earliest, 2)
	require.Len(t, view.Board.Latest, 2)
	assert.Equal(t, "stu-1", view.Board.Earliest[0].StudentID)
	assert.Equal(t, "stu-2", view.Board.Earliest[1].StudentID)
	assert.Equal(t, "stu-3", view.Board.Latest[0].StudentID)
	assert.Equal(t, "stu-2", view.Board.Latest[1].StudentID)
}

func TestLeaderboardTieBreaksOnStudentID(t *testing.T) {
	students := &stubCohortRepo{cohort: []models.Student{
		cohortStudent("stu-b", "Beta"),
		cohortStudent("stu-a", "Alpha"),
	}}
	attendance := &stubCohortAttendance{records: []models.RawAttendanceRecord{
		cohortRecord("stu-a", "2025-03-03", "07:05"),
		cohortRecord("stu-b", "2025-03-03", "07:05"),
	}}
	svc := NewInsightService(students, &stubConfigRepo{configs: statusConfigs()}, attendance, nil, 0, 3, zap.NewNop())

	view, err := svc.Leaderboard(context.Background(), "X-A", models.ShiftMorning, "2025-03")
	require.NoError(t, err)
	require.Len(t, view.Board.Earliest, 2)
	assert.Equal(t, "stu-a", view.Board.Earliest[0].StudentID)
	assert.Equal(t, "stu-b", view.Board.Earliest[1].StudentID)
}

func TestLeaderboardEmptyCohort(t *testing.T) {
	svc := NewInsightService(&stubCohortRepo{}, &stubConfigRepo{configs: statusConfigs()}, &stubCohortAttendance{}, nil, 0, 3, zap.NewNop())

	view, err := svc.Leaderboard(context.Background(), "X-A", models.ShiftMorning, "2025-03")
	require.NoError(t, err)
	assert.Empty(t, view.Board.Earliest)
	assert.Empty(t, view.Board.Latest)
	assert.Zero(t, view.Cohort)
}

func TestLeaderboardInvalidShift(t *testing.T) {
	svc := NewInsightService(&stubCohortRepo{}, &stubConfigRepo{}, &stubCohortAttendance{}, nil, 0, 3, zap.NewNop())

	_, err := svc.Leaderboard(context.Background(), "X-A", models.Shift("Night"), "2025-03")
	require.Error(t, err)
}
