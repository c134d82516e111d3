package resolver

import (
	"time"

	"github.com/sekolah-digital/ops-api/internal/models"
)

// DayInput bundles everything needed to resolve one (student, date) pair.
// The caller materialises all of it up front; ResolveDay never reaches back
// into a store.
type DayInput struct {
	Student models.Student
	Date    time.Time

	// Record is the raw capture for this exact date, nil when none exists.
	Record *models.RawAttendanceRecord

	// Configs holds class configuration keyed by class id.
	Configs map[string]*models.ClassConfig

	// Permissions are the student's leave records; only approved rows whose
	// range covers Date are considered.
	Permissions []models.PermissionRecord

	// Assignments carries the monthly class/shift rotation rows for
	// flip-flop students. Ignored for fixed schedules.
	Assignments []models.MonthlyAssignment
}

// ResolveDay classifies a single (student, date) pair. The rules are
// priority-ordered, not sequential transitions:
//
//  1. dates before enrollment are NotYetEnrolled, over everything else
//  2. non-school days are NoSchool, even when a stray capture exists
//  3. an explicit capture wins over inferred leave: present/late by grace
//     comparison, requested maps to Pending
//  4. an approved permission covering the date fills the no-capture gap
//  5. otherwise Absent
//
// For dates with a record, the class and shift frozen on the record are
// authoritative; the student's current profile (or rotation row) is consulted
// only when previewing a date that has no record yet.
func ResolveDay(in DayInput) models.DailyStatus {
	date := civilDate(in.Date)
	out := models.DailyStatus{Date: date.Format("2006-01-02")}

	if date.Before(civilDate(in.Student.EnrollmentDate)) {
		out.Status = models.StatusNotYetEnrolled
		return out
	}

	classID, shift := in.Student.AssignmentFor(MonthKey(date), in.Assignments)
	if in.Record != nil {
		classID, shift = in.Record.ClassID, in.Record.Shift
	}

	cfg, ok := in.Configs[classID]
	if !ok || cfg == nil {
		out.Status = models.StatusUnknown
		return out
	}

	if !IsSchoolDay(date, cfg.EffectiveStudyDays()) {
		out.Status = models.StatusNoSchool
		return out
	}

	if in.Record == nil {
		for _, p := range in.Permissions {
			if p.Status == models.PermissionApproved && p.Covers(date) {
				out.Status = models.StatusPermission
				return out
			}
		}
		out.Status = models.StatusAbsent
		return out
	}

	switch in.Record.Status {
	case models.RecordedRequested:
		out.Status = models.StatusPending
		out.TimeIn = in.Record.TimeIn
	case models.RecordedLate:
		out.Status = models.StatusLate
		out.TimeIn = in.Record.TimeIn
		out.Anomaly = in.Record.TimeIn == nil
	case models.RecordedPresent:
		start := cfg.Shifts.Start(shift)
		if start == "" {
			out.Status = models.StatusUnknown
			return out
		}
		minutes, anomaly := minutesFromStart(in.Record.TimeIn, start)
		// the grace boundary is inclusive: arriving exactly grace minutes
		// after shift start still counts as on time
		if minutes <= EffectiveGrace(in.Student, cfg) {
			out.Status = models.StatusPresent
		} else {
			out.Status = models.StatusLate
		}
		out.TimeIn = in.Record.TimeIn
		out.Anomaly = anomaly
	default:
		out.Status = models.StatusUnknown
	}
	return out
}

// minutesFromStart computes the signed deviation of an HH:MM arrival from
// the shift start. A missing or malformed time on a captured record is a
// data error; it resolves as zero deviation with the anomaly flag set so the
// rest of the page still renders.
func minutesFromStart(timeIn *string, start string) (int, bool) {
	startMin, err := models.ParseClock(start)
	if err != nil {
		return 0, true
	}
	if timeIn == nil {
		return 0, true
	}
	inMin, err := models.ParseClock(*timeIn)
	if err != nil {
		return 0, true
	}
	return inMin - startMin, false
}
