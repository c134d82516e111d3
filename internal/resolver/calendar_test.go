package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sekolah-digital/ops-api/internal/models"
)

func TestIsSchoolDayWeekdayDefault(t *testing.T) {
	// 2024-08-15 is a Thursday, 2024-08-17 a Saturday
	assert.True(t, IsSchoolDay(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), nil))
	assert.False(t, IsSchoolDay(time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC), nil))
}

func TestIsSchoolDayConfiguredDays(t *testing.T) {
	days := []string{models.WeekdaySaturday, models.WeekdaySunday}
	assert.True(t, IsSchoolDay(time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC), days))
	assert.False(t, IsSchoolDay(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), days))
}

func TestIsSchoolDayIgnoresClockAndZone(t *testing.T) {
	// 23:30 in UTC+7 on a Friday is still Friday; the instant is Saturday UTC
	zone := time.FixedZone("WIB", 7*3600)
	lateFriday := time.Date(2024, 8, 16, 23, 30, 0, 0, zone)
	assert.True(t, IsSchoolDay(lateFriday, nil))
}

func TestSchoolDaysEnumeratesMonth(t *testing.T) {
	days := SchoolDays(2024, time.September, nil)
	// September 2024 has 21 weekdays
	assert.Len(t, days, 21)
	for _, d := range days {
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
		assert.Equal(t, time.September, d.Month())
	}
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2025-01", MonthKey(time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)))
}
