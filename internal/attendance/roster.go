package attendance

import "github.com/starford/rollcall/internal/models"

// CurrentStatus returns the status of the student's last attendance record,
// or absent when there are no records. The record's date is not consulted.
func CurrentStatus(s models.Student) models.AttendanceStatus {
	if n := len(s.Attendance); n > 0 {
		return s.Attendance[n-1].Status
	}
	return models.StatusAbsent
}

// StatusOn returns the status recorded for date, or absent when no record
// carries that date. With duplicate dates the first record wins.
func StatusOn(s models.Student, date string) models.AttendanceStatus {
	for _, a := range s.Attendance {
		if a.Date == date {
			return a.Status
		}
	}
	return models.StatusAbsent
}

// Find returns the student with the given id.
func Find(r models.Roster, id string) (models.Student, bool) {
	i := indexOf(r, id)
	if i < 0 {
		return models.Student{}, false
	}
	return r[i], true
}

// SetStatus returns a roster in which the last attendance record of student id
// has status st. Dates are kept and nothing is appended. The roster is
// returned as is when id is unknown or the student has no records.
func SetStatus(r models.Roster, id string, st models.AttendanceStatus) models.Roster {
	i := indexOf(r, id)
	if i < 0 {
		return r
	}
	n := len(r[i].Attendance)
	if n == 0 || r[i].Attendance[n-1].Status == st {
		return r
	}
	return replace(r, i, func(recs []models.AttendanceRecord) []models.AttendanceRecord {
		recs[n-1].Status = st
		return recs
	})
}

// MarkOn returns a roster in which student id has status st on date. The
// first record with that date is overwritten; without one a record is
// appended, which makes it the student's current status.
func MarkOn(r models.Roster, id, date string, st models.AttendanceStatus) models.Roster {
	i := indexOf(r, id)
	if i < 0 {
		return r
	}
	at := -1
	for j, a := range r[i].Attendance {
		if a.Date == date {
			at = j
			break
		}
	}
	if at >= 0 && r[i].Attendance[at].Status == st {
		return r
	}
	return replace(r, i, func(recs []models.AttendanceRecord) []models.AttendanceRecord {
		if at < 0 {
			return append(recs, models.AttendanceRecord{Date: date, Status: st})
		}
		recs[at].Status = st
		return recs
	})
}

// replace copies the roster and the attendance of student i, then lets edit
// change the copied records.
func replace(r models.Roster, i int, edit func([]models.AttendanceRecord) []models.AttendanceRecord) models.Roster {
	out := make(models.Roster, len(r))
	copy(out, r)

	recs := make([]models.AttendanceRecord, len(r[i].Attendance), len(r[i].Attendance)+1)
	copy(recs, r[i].Attendance)
	out[i].Attendance = edit(recs)
	return out
}

func indexOf(r models.Roster, id string) int {
	for i := range r {
		if r[i].ID == id {
			return i
		}
	}
	return -1
}

// Same reports whether a and b are the same roster value, which is how callers
// tell a no-op update from an effective one.
func Same(a, b models.Roster) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
