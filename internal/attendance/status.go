// Package attendance implements the roster rules: current-status derivation,
// status updates, summary aggregation and name filtering.
//
// Every function here is pure. Input rosters are never modified; updates
// return a new roster that shares unchanged students with the old one.
package attendance

import (
	"fmt"

	"github.com/starford/rollcall/internal/apperr"
	"github.com/starford/rollcall/internal/models"
)

// Statuses lists every valid status in button order.
func Statuses() []models.AttendanceStatus {
	return []models.AttendanceStatus{models.StatusPresent, models.StatusAbsent, models.StatusLate}
}

var labels = map[models.AttendanceStatus]string{
	models.StatusPresent: "Present",
	models.StatusLate:    "Late",
	models.StatusAbsent:  "Absent",
}

// ParseStatus converts s into a status. Only the exact lowercase names are accepted.
func ParseStatus(s string) (models.AttendanceStatus, error) {
	st := models.AttendanceStatus(s)
	if !Valid(st) {
		return "", fmt.Errorf("attendance: parse %q: %w", s, apperr.ErrInvalidStatus)
	}
	return st, nil
}

// Valid reports whether st is one of the known statuses.
func Valid(st models.AttendanceStatus) bool {
	_, ok := labels[st]
	return ok
}

// Label returns the display label for st.
func Label(st models.AttendanceStatus) string {
	if l, ok := labels[st]; ok {
		return l
	}
	return string(st)
}

// Labels returns a copy of the status to label mapping.
func Labels() map[models.AttendanceStatus]string {
	out := make(map[models.AttendanceStatus]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
