package models

import "time"

// PermissionStatus tracks the approval state of a leave request.
type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "pending"
	PermissionApproved PermissionStatus = "approved"
	PermissionRejected PermissionStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s PermissionStatus) Valid() bool {
	switch s {
	case PermissionPending, PermissionApproved, PermissionRejected:
		return true
	default:
		return false
	}
}

// PermissionRecord is an administratively approved planned absence covering
// an inclusive date range. Only approved records affect status resolution.
type PermissionRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   time.Time        `db:"end_date" json:"end_date"`
	Reason    *string          `db:"reason" json:"reason,omitempty"`
	Status    PermissionStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the record's inclusive date range contains the
// given calendar date. Comparison is by date components only.
func (p PermissionRecord) Covers(date time.Time) bool {
	day := toDay(date)
	return !day.Before(toDay(p.StartDate)) && !day.After(toDay(p.EndDate))
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PermissionFilter scopes permission listing queries.
type PermissionFilter struct {
	StudentID string
	Status    *PermissionStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}
