package schedule

import (
	"sort"
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
)

// Expand produces the expected dose occurrences for one medication's version
// history within [rangeStart, rangeEnd). Results are ordered by date
// ascending; a timeless occurrence sorts at the end of its calendar day, after
// any clocked occurrence on the same day, with the slot index as the final
// tie-break.
//
// Each version contributes occurrences only inside its own active window
// [effectiveFrom, nextVersion.effectiveFrom). Period boundaries are anchored
// at the version's effectiveFrom day and step by the version's frequency;
// an until-count quota is consumed from the version's first period, not from
// the requested range, so slicing a query never changes which occurrences
// exist.
func Expand(versions []models.ScheduleVersion, rangeStart, rangeEnd time.Time, loc *time.Location, lead time.Duration) []models.Occurrence {
	if loc == nil {
		loc = time.UTC
	}
	if !rangeStart.Before(rangeEnd) {
		return nil
	}

	ordered := make([]models.ScheduleVersion, len(versions))
	copy(ordered, versions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectiveFrom.Before(ordered[j].EffectiveFrom)
	})

	var out []models.Occurrence
	for i := range ordered {
		var next *models.ScheduleVersion
		if i+1 < len(ordered) {
			next = &ordered[i+1]
		}
		out = append(out, expandVersion(ordered[i], next, i == 0, rangeStart, rangeEnd, loc, lead)...)
	}

	sortOccurrences(out, loc)
	return out
}

func expandVersion(v models.ScheduleVersion, next *models.ScheduleVersion, first bool, rangeStart, rangeEnd time.Time, loc *time.Location, lead time.Duration) []models.Occurrence {
	def := v.Definition
	if !def.Regularly || def.Frequency == nil {
		// As-needed-only and unscheduled versions contribute no expected
		// occurrences; ad-hoc doses reconcile as unscheduled entries.
		return nil
	}

	windowStart := v.EffectiveFrom
	var windowEnd time.Time
	if next != nil {
		windowEnd = next.EffectiveFrom
	}

	anchor := StartOfDay(windowStart, loc)

	var untilBound time.Time
	if def.Until != nil && def.Until.Type == models.UntilDate {
		day, err := ParseLocalDate(def.Until.Date, loc)
		if err != nil {
			return nil
		}
		// Occurrences on the stop date itself are still due.
		untilBound = day.AddDate(0, 0, 1)
	}

	maxPeriods := -1
	if def.Until != nil && def.Until.Type == models.UntilCount {
		maxPeriods = def.Until.Count
	}

	var out []models.Occurrence
	for k := 0; ; k++ {
		if maxPeriods >= 0 && k >= maxPeriods {
			break
		}
		day := StepFromAnchor(anchor, k, *def.Frequency)
		if !untilBound.IsZero() && !day.Before(untilBound) {
			break
		}
		if !day.Before(rangeEnd) {
			break
		}
		if !windowEnd.IsZero() && !day.Before(windowEnd) {
			break
		}

		for _, entry := range def.Times {
			occAt := day
			timeless := true
			if entry.Type == models.TimeExact {
				at, err := CombineDayTime(day, entry.Time, loc)
				if err != nil {
					continue
				}
				occAt = at
				timeless = false
			}

			if occAt.Before(windowStart) {
				// A timeless dose is due any time on its calendar day, so a
				// history whose first version starts mid-day still owes that
				// day's dose. Later versions leave the changeover day to
				// their predecessor, whose window covers it.
				if !first || !timeless || !StartOfDay(windowStart, loc).Equal(occAt) {
					continue
				}
				occAt = windowStart
			}
			if !windowEnd.IsZero() && !occAt.Before(windowEnd) {
				continue
			}
			if occAt.Before(rangeStart) || !occAt.Before(rangeEnd) {
				continue
			}

			notification := occAt
			if lead > 0 {
				notification = occAt.Add(-lead)
			}

			out = append(out, models.Occurrence{
				MedicationID:     v.MedicationID,
				ScheduledSlot:    entry.Slot,
				Date:             occAt,
				Timeless:         timeless,
				NotificationDate: notification,
				VersionID:        v.ID,
			})
		}
	}

	return out
}

func sortOccurrences(occs []models.Occurrence, loc *time.Location) {
	key := func(o models.Occurrence) time.Time {
		if o.Timeless {
			return EndOfDay(o.Date, loc)
		}
		return o.Date
	}
	sort.SliceStable(occs, func(i, j int) bool {
		ki, kj := key(occs[i]), key(occs[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		if occs[i].MedicationID != occs[j].MedicationID {
			return occs[i].MedicationID < occs[j].MedicationID
		}
		return occs[i].ScheduledSlot < occs[j].ScheduledSlot
	})
}
