package resolver

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekolah-digital/ops-api/internal/models"
)

func arrivalRecord(day int, timeIn string, status models.RecordedStatus) models.RawAttendanceRecord {
	return models.RawAttendanceRecord{
		StudentID: "s1",
		Date:      time.Date(2024, 9, day, 0, 0, 0, 0, time.UTC),
		Status:    status,
		TimeIn:    strPtr(timeIn),
		ClassID:   "X-A",
		Shift:     models.ShiftMorning,
	}
}

func TestAverageArrivalSignedMean(t *testing.T) {
	// +5, -3, +10 relative to the 07:00 start -> mean 4 -> "4 min late"
	records := []models.RawAttendanceRecord{
		arrivalRecord(2, "07:05", models.RecordedPresent),
		arrivalRecord(3, "06:57", models.RecordedPresent),
		arrivalRecord(4, "07:10", models.RecordedLate),
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	assert.Equal(t, "4 min late", got.Label)
	require.NotNil(t, got.RawMinutes)
	assert.InDelta(t, 4.0, *got.RawMinutes, 1e-9)
	assert.Equal(t, 3, got.Samples)
}

func TestAverageArrivalExcludesNonArrivals(t *testing.T) {
	records := []models.RawAttendanceRecord{
		arrivalRecord(2, "07:05", models.RecordedPresent),
		arrivalRecord(3, "06:57", models.RecordedPresent),
		arrivalRecord(4, "07:10", models.RecordedLate),
		arrivalRecord(5, "07:30", models.RecordedRequested), // pending, no arrival
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	assert.Equal(t, "4 min late", got.Label)
	assert.Equal(t, 3, got.Samples)
}

func TestAverageArrivalOtherMonthExcluded(t *testing.T) {
	records := []models.RawAttendanceRecord{
		arrivalRecord(2, "07:05", models.RecordedPresent),
		{
			StudentID: "s1",
			Date:      time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC),
			Status:    models.RecordedPresent,
			TimeIn:    strPtr("08:00"),
			ClassID:   "X-A",
			Shift:     models.ShiftMorning,
		},
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	require.NotNil(t, got.RawMinutes)
	assert.InDelta(t, 5.0, *got.RawMinutes, 1e-9)
}

func TestAverageArrivalOnTimeBand(t *testing.T) {
	records := []models.RawAttendanceRecord{
		arrivalRecord(2, "07:02", models.RecordedPresent),
		arrivalRecord(3, "06:58", models.RecordedPresent),
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	assert.Equal(t, "on time", got.Label)
}

func TestAverageArrivalEarlyLabel(t *testing.T) {
	records := []models.RawAttendanceRecord{
		arrivalRecord(2, "06:50", models.RecordedPresent),
		arrivalRecord(3, "06:54", models.RecordedPresent),
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	assert.Equal(t, "8 min early", got.Label)
}

func TestAverageArrivalEmptyMonthIsNA(t *testing.T) {
	got := AverageArrival(nil, "2024-09", testConfigs())
	assert.Equal(t, models.AverageArrivalNA, got.Label)
	assert.Nil(t, got.RawMinutes)
	assert.Zero(t, got.Samples)
}

func TestAverageArrivalUsesRecordedShift(t *testing.T) {
	// captured under X-B (07:30 start) although profile may say otherwise
	records := []models.RawAttendanceRecord{
		{
			StudentID: "s1",
			Date:      time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
			Status:    models.RecordedPresent,
			TimeIn:    strPtr("07:35"),
			ClassID:   "X-B",
			Shift:     models.ShiftMorning,
		},
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	require.NotNil(t, got.RawMinutes)
	assert.InDelta(t, 5.0, *got.RawMinutes, 1e-9)
}

func TestAverageArrivalSkipsMalformedRecords(t *testing.T) {
	records := []models.RawAttendanceRecord{
		arrivalRecord(2, "07:05", models.RecordedPresent),
		{
			StudentID: "s1",
			Date:      time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC),
			Status:    models.RecordedPresent,
			ClassID:   "X-A",
			Shift:     models.ShiftMorning,
		},
	}
	got := AverageArrival(records, "2024-09", testConfigs())
	assert.Equal(t, 1, got.Samples)
}

func cohort() []CohortEntry {
	mk := func(id string, raw float64) CohortEntry {
		v := raw
		return CohortEntry{StudentID: id, Average: models.AverageArrival{RawMinutes: &v}}
	}
	return []CohortEntry{
		mk("s1", -8), mk("s2", -3), mk("s3", 0), mk("s4", 2),
		mk("s5", 6), mk("s6", 6), mk("s7", 11),
		{StudentID: "s8", Average: models.AverageArrival{Label: models.AverageArrivalNA}},
	}
}

func TestRankCohortTopThree(t *testing.T) {
	board := RankCohort(cohort(), 3)

	require.Len(t, board.Earliest, 3)
	assert.Equal(t, "s1", board.Earliest[0].StudentID)
	assert.Equal(t, "s2", board.Earliest[1].StudentID)
	assert.Equal(t, "s3", board.Earliest[2].StudentID)

	require.Len(t, board.Latest, 3)
	assert.Equal(t, "s7", board.Latest[0].StudentID)
	// s5 and s6 tie at +6; the order between them is fixed by student id
	assert.ElementsMatch(t, []string{"s5", "s6"}, []string{board.Latest[1].StudentID, board.Latest[2].StudentID})
}

func TestRankCohortStableUnderPermutation(t *testing.T) {
	base := RankCohort(cohort(), 3)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := cohort()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, base, RankCohort(shuffled, 3))
	}
}

func TestRankCohortExcludesNA(t *testing.T) {
	board := RankCohort(cohort(), 10)
	for _, e := range append(board.Earliest, board.Latest...) {
		assert.NotEqual(t, "s8", e.StudentID)
	}
}
