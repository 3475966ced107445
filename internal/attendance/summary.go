package attendance

import "github.com/starford/rollcall/internal/models"

// Summarize counts the roster by current status. Every student lands in
// exactly one of Present, Late or Absent, so their sum equals Total.
func Summarize(r models.Roster) models.Summary {
	sum := models.Summary{Total: len(r)}
	for _, s := range r {
		switch CurrentStatus(s) {
		case models.StatusPresent:
			sum.Present++
		case models.StatusLate:
			sum.Late++
		default:
			sum.Absent++
		}
	}
	return sum
}
