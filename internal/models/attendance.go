package models

import "time"

// RecordedStatus is the status stored on a raw attendance record at capture
// time. Derived daily statuses (absent, permission, ...) are never persisted.
type RecordedStatus string

const (
	RecordedPresent   RecordedStatus = "present"
	RecordedLate      RecordedStatus = "late"
	RecordedRequested RecordedStatus = "requested"
)

// Valid returns true when the status is a supported value.
func (s RecordedStatus) Valid() bool {
	switch s {
	case RecordedPresent, RecordedLate, RecordedRequested:
		return true
	default:
		return false
	}
}

// CaptureMethod describes how an attendance event was captured.
type CaptureMethod string

const (
	MethodFaceScan CaptureMethod = "face-scan"
	MethodManual   CaptureMethod = "manual"
	MethodRequest  CaptureMethod = "request"
)

// Valid returns true when the method is a supported value.
func (m CaptureMethod) Valid() bool {
	switch m {
	case MethodFaceScan, MethodManual, MethodRequest:
		return true
	default:
		return false
	}
}

// RawAttendanceRecord is the captured ground truth for one student on one
// date; unique on (student_id, date). ClassID and Shift are frozen at capture
// time so historical resolution never depends on the student's current
// profile.
type RawAttendanceRecord struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Date      time.Time      `db:"date" json:"date"`
	Status    RecordedStatus `db:"status" json:"status"`
	TimeIn    *string        `db:"time_in" json:"time_in,omitempty"` // HH:MM
	Timestamp *time.Time     `db:"captured_at" json:"captured_at,omitempty"`
	Method    CaptureMethod  `db:"method" json:"method"`
	ClassID   string         `db:"class_id" json:"class_id"`
	Shift     Shift          `db:"shift" json:"shift"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	StudentID string
	ClassID   string
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    *RecordedStatus
	Page      int
	PageSize  int
}
