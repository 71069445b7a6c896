package schedule

import (
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
)

// DueReminders selects occurrences whose notification time falls inside
// [windowStart, windowEnd], both inclusive. The filter is pure; at-most-once
// delivery is the caller's responsibility via an atomic dedup claim keyed on
// (medication, slot, notification time).
func DueReminders(occurrences []models.Occurrence, windowStart, windowEnd time.Time) []models.Occurrence {
	var due []models.Occurrence
	for _, occ := range occurrences {
		if occ.NotificationDate.Before(windowStart) || occ.NotificationDate.After(windowEnd) {
			continue
		}
		due = append(due, occ)
	}
	return due
}
