package models

import "time"

// Shift names a daily session with its own start time.
type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftEvening   Shift = "Evening"
)

// Valid returns true when the shift is a supported value.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftEvening:
		return true
	default:
		return false
	}
}

// ScheduleType distinguishes fixed assignments from monthly rotating ones.
type ScheduleType string

const (
	ScheduleFixed    ScheduleType = "Fix"
	ScheduleFlipFlop ScheduleType = "Flip-Flop"
)

// Valid returns true when the schedule type is a supported value.
func (t ScheduleType) Valid() bool {
	return t == ScheduleFixed || t == ScheduleFlipFlop
}

// Student represents a learner registered in the institution.
//
// GracePeriodMinutes is a per-student override of the class grace window;
// nil means the class default applies. A zero value is a real override.
type Student struct {
	ID                 string       `db:"id" json:"id"`
	NIS                string       `db:"nis" json:"nis"`
	FullName           string       `db:"full_name" json:"full_name"`
	ClassID            string       `db:"class_id" json:"class_id"`
	Shift              Shift        `db:"shift" json:"shift"`
	ScheduleType       ScheduleType `db:"schedule_type" json:"schedule_type"`
	GracePeriodMinutes *int         `db:"grace_period_minutes" json:"grace_period_minutes,omitempty"`
	EnrollmentDate     time.Time    `db:"enrollment_date" json:"enrollment_date"`
	Active             bool         `db:"active" json:"active"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// MonthlyAssignment records which class and shift a rotating student holds
// for one calendar month. Fixed students never have rows here.
type MonthlyAssignment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Month     string    `db:"month" json:"month"` // YYYY-MM
	ClassID   string    `db:"class_id" json:"class_id"`
	Shift     Shift     `db:"shift" json:"shift"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AssignmentFor resolves the class and shift in effect for the given month.
// Fixed students always use their profile fields; rotating students use the
// monthly assignment when one exists and fall back to the profile otherwise.
func (s Student) AssignmentFor(month string, assignments []MonthlyAssignment) (string, Shift) {
	if s.ScheduleType == ScheduleFlipFlop {
		for _, a := range assignments {
			if a.StudentID == s.ID && a.Month == month {
				return a.ClassID, a.Shift
			}
		}
	}
	return s.ClassID, s.Shift
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Shift     *Shift
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
