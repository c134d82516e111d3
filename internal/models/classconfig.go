package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Weekday identifiers stored in class study-day configuration.
const (
	WeekdayMonday    = "Monday"
	WeekdayTuesday   = "Tuesday"
	WeekdayWednesday = "Wednesday"
	WeekdayThursday  = "Thursday"
	WeekdayFriday    = "Friday"
	WeekdaySaturday  = "Saturday"
	WeekdaySunday    = "Sunday"
)

// DefaultStudyDays applies when a class has no explicit study-day
// configuration: schools are assumed open Monday through Friday.
var DefaultStudyDays = []string{
	WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday, WeekdayFriday,
}

// WeekdayName maps a time.Weekday onto the stored identifier.
func WeekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return WeekdayMonday
	case time.Tuesday:
		return WeekdayTuesday
	case time.Wednesday:
		return WeekdayWednesday
	case time.Thursday:
		return WeekdayThursday
	case time.Friday:
		return WeekdayFriday
	case time.Saturday:
		return WeekdaySaturday
	default:
		return WeekdaySunday
	}
}

// ShiftTimes maps each shift to its HH:MM start time.
type ShiftTimes struct {
	Morning   string `db:"morning_start" json:"morning" validate:"omitempty,clock"`
	Afternoon string `db:"afternoon_start" json:"afternoon" validate:"omitempty,clock"`
	Evening   string `db:"evening_start" json:"evening" validate:"omitempty,clock"`
}

// Start returns the configured HH:MM start for the shift, empty when unset.
func (t ShiftTimes) Start(shift Shift) string {
	switch shift {
	case ShiftMorning:
		return t.Morning
	case ShiftAfternoon:
		return t.Afternoon
	case ShiftEvening:
		return t.Evening
	default:
		return ""
	}
}

// ClassConfig holds the per-class calendar and grace configuration.
type ClassConfig struct {
	ClassID              string         `db:"class_id" json:"class_id"`
	Name                 string         `db:"name" json:"name"`
	StudyDays            pq.StringArray `db:"study_days" json:"study_days"`
	Shifts               ShiftTimes     `json:"shifts"`
	StandardGraceMinutes int            `db:"standard_grace_minutes" json:"standard_grace_minutes"`
	ExtendedGraceMinutes int            `db:"extended_grace_minutes" json:"extended_grace_minutes"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// EffectiveStudyDays returns the configured study days, or the documented
// Monday-Friday default when the class carries no configuration.
func (c *ClassConfig) EffectiveStudyDays() []string {
	if c == nil || len(c.StudyDays) == 0 {
		return DefaultStudyDays
	}
	return c.StudyDays
}

// ParseClock converts an HH:MM string into minutes after midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight back into HH:MM.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}
