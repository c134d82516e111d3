package resolver

import (
	"fmt"
	"math"
	"sort"

	"github.com/sekolah-digital/ops-api/internal/models"
)

// OnTimeBandMinutes is the half-width of the "on time" band: a rounded
// average within ±2 minutes of shift start reads as on time.
const OnTimeBandMinutes = 2

// AverageArrival computes the signed mean deviation from shift start for one
// student's records in the given YYYY-MM month. Only present/late captures
// with a usable time-in qualify; absences, pending requests and permission
// days carry no arrival to average. Each record is measured against the
// shift start recorded on it, so flip-flop students aggregate correctly.
func AverageArrival(records []models.RawAttendanceRecord, month string, configs map[string]*models.ClassConfig) models.AverageArrival {
	var sum float64
	var n int
	for _, r := range records {
		if MonthKey(r.Date) != month {
			continue
		}
		if r.Status != models.RecordedPresent && r.Status != models.RecordedLate {
			continue
		}
		cfg, ok := configs[r.ClassID]
		if !ok || cfg == nil {
			continue
		}
		start := cfg.Shifts.Start(r.Shift)
		if start == "" {
			continue
		}
		minutes, anomaly := minutesFromStart(r.TimeIn, start)
		if anomaly {
			continue
		}
		sum += float64(minutes)
		n++
	}

	if n == 0 {
		return models.AverageArrival{Label: models.AverageArrivalNA}
	}

	mean := sum / float64(n)
	return models.AverageArrival{
		Label:      arrivalLabel(int(math.Round(mean))),
		RawMinutes: &mean,
		Samples:    n,
	}
}

func arrivalLabel(rounded int) string {
	switch {
	case rounded > OnTimeBandMinutes:
		return fmt.Sprintf("%d min late", rounded)
	case rounded < -OnTimeBandMinutes:
		return fmt.Sprintf("%d min early", -rounded)
	default:
		return "on time"
	}
}

// CohortEntry pairs a student with their monthly average for ranking.
type CohortEntry struct {
	StudentID string                `json:"student_id"`
	FullName  string                `json:"full_name"`
	Average   models.AverageArrival `json:"average"`
}

// Leaderboard holds the ranked extremes of a cohort.
type Leaderboard struct {
	Earliest []CohortEntry `json:"earliest"`
	Latest   []CohortEntry `json:"latest"`
}

// RankCohort orders a cohort by signed average arrival and returns the top
// earliest (most negative) and latest (most positive) entries. Entries
// without a computable average are excluded. Ties break on student id, so
// the ranking is a stable total order regardless of input permutation.
func RankCohort(entries []CohortEntry, topN int) Leaderboard {
	if topN <= 0 {
		topN = 3
	}
	ranked := make([]CohortEntry, 0, len(entries))
	for _, e := range entries {
		if e.Average.RawMinutes != nil {
			ranked = append(ranked, e)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := *ranked[i].Average.RawMinutes, *ranked[j].Average.RawMinutes
		if a != b {
			return a < b
		}
		return ranked[i].StudentID < ranked[j].StudentID
	})

	board := Leaderboard{}
	for i := 0; i < len(ranked) && i < topN; i++ {
		board.Earliest = append(board.Earliest, ranked[i])
	}
	for i := len(ranked) - 1; i >= 0 && len(board.Latest) < topN; i-- {
		board.Latest = append(board.Latest, ranked[i])
	}
	return board
}
