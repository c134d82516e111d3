package models

// DayStatus is the derived classification for one student on one date. It is
// computed fresh on every read and never persisted; the raw attendance
// record, when one exists, remains the source of truth.
type DayStatus string

const (
	StatusPresent        DayStatus = "Present"
	StatusLate           DayStatus = "Late"
	StatusAbsent         DayStatus = "Absent"
	StatusPermission     DayStatus = "Permission"
	StatusPending        DayStatus = "Pending"
	StatusNotYetEnrolled DayStatus = "NotYetEnrolled"
	StatusNoSchool       DayStatus = "NoSchool"

	// StatusUnknown signals missing configuration (no class config or shift
	// start). The UI renders it as a neutral loading state, never as a
	// misleading Present or Absent.
	StatusUnknown DayStatus = "Unknown"
)

// DailyStatus is the resolved view for one (student, date) pair.
type DailyStatus struct {
	Date    string    `json:"date"` // YYYY-MM-DD
	Status  DayStatus `json:"status"`
	TimeIn  *string   `json:"time_in,omitempty"` // HH:MM, for Present/Late/Pending
	Anomaly bool      `json:"anomaly,omitempty"` // record was malformed; resolved with fallback
}

// AverageArrivalNA is returned when a month has no qualifying records.
const AverageArrivalNA = "N/A"

// AverageArrival summarises a student's arrival behaviour for one month.
// RawMinutes is the unrounded signed mean deviation from shift start and is
// nil in the N/A case.
type AverageArrival struct {
	Label      string   `json:"average_label"`
	RawMinutes *float64 `json:"raw_minutes,omitempty"`
	Samples    int      `json:"samples"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
