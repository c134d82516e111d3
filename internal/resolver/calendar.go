// Package resolver implements the attendance status resolution engine: pure,
// stateless functions that classify a student's attendance for a calendar
// date and summarise monthly arrival behaviour. All data is supplied by the
// caller; nothing here touches a store.
package resolver

import (
	"time"

	"github.com/sekolah-digital/ops-api/internal/models"
)

// civilDate strips the clock and zone so calendar arithmetic operates on
// year/month/day components only. Resolving through instants would shift
// dates across midnight for callers in other zones.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthKey renders the YYYY-MM key used for monthly assignments and averages.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// IsSchoolDay reports whether the date is a school day for a class meeting on
// the given weekdays. An empty study-day set falls back to Monday-Friday.
func IsSchoolDay(date time.Time, studyDays []string) bool {
	days := studyDays
	if len(days) == 0 {
		days = models.DefaultStudyDays
	}
	name := models.WeekdayName(civilDate(date).Weekday())
	for _, d := range days {
		if d == name {
			return true
		}
	}
	return false
}

// SchoolDays enumerates every school day of the given month in ascending
// order.
func SchoolDays(year int, month time.Month, studyDays []string) []time.Time {
	var days []time.Time
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if IsSchoolDay(d, studyDays) {
			days = append(days, d)
		}
	}
	return days
}
