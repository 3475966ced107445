// Package models defines the domain types for Rollcall.
package models

// AttendanceStatus is the attendance state of a student on a given date.
type AttendanceStatus string

// Attendance statuses.
const (
	StatusPresent AttendanceStatus = "present"
	StatusLate    AttendanceStatus = "late"
	StatusAbsent  AttendanceStatus = "absent"
)

// DateLayout is the format of attendance record dates.
const DateLayout = "2006-01-02"

// AttendanceRecord is one dated attendance observation.
type AttendanceRecord struct {
	Date   string           `json:"date" yaml:"date"` // DateLayout
	Status AttendanceStatus `json:"status" yaml:"status"`
}

// Student is one learner on the roster.
//
// Attendance is ordered by insertion. Values reachable from a Roster held by
// the session are never modified in place; updates build new slices.
type Student struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Email      string             `json:"email" yaml:"email"`
	Image      string             `json:"image" yaml:"image"`
	Attendance []AttendanceRecord `json:"attendance" yaml:"attendance"`
}

// Roster is the ordered set of students tracked by a session.
type Roster []Student

// Summary holds aggregate counts over a roster by current status.
type Summary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}
