package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
)

// Entry is one row of the merged schedule view: an expected occurrence, a
// recorded dose matched to one, or a standalone dose that matched nothing.
type Entry struct {
	MedicationID   int64      `json:"medication_id"`
	Date           time.Time  `json:"date"`
	Timeless       bool       `json:"timeless,omitempty"`
	Scheduled      *int       `json:"scheduled"`
	Happened       bool       `json:"happened"`
	TookMedication *bool      `json:"took_medication"`
	DoseID         *int64     `json:"dose_id,omitempty"`
	DelayMinutes   *int       `json:"delay,omitempty"`
}

// Statistics summarise adherence over the scheduled entries of a view.
type Statistics struct {
	TookMedication *float64 `json:"took_medication"`
	Delay          *float64 `json:"delay"`
	Delta          *float64 `json:"delta"`
}

type versionWindow struct {
	start time.Time
	end   time.Time // zero = open
}

// Reconcile matches recorded doses to expected occurrences and merges both
// into one date-ordered view.
//
// A dose matches an occurrence when medication and slot agree, the dose falls
// inside the occurrence's source-version window, and both sit on the same
// patient-local calendar day. The window check keeps numerically equal slots
// from different versions apart. When several doses contend for one
// occurrence the most recently created wins; the rest surface as unscheduled
// entries, as do doses recorded without a slot.
func Reconcile(occurrences []models.Occurrence, doses []models.Dose, versions []models.ScheduleVersion, loc *time.Location, now time.Time) []Entry {
	if loc == nil {
		loc = time.UTC
	}

	windows := make(map[string]versionWindow, len(versions))
	ordered := make([]models.ScheduleVersion, len(versions))
	copy(ordered, versions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectiveFrom.Before(ordered[j].EffectiveFrom)
	})
	for i := range ordered {
		w := versionWindow{start: ordered[i].EffectiveFrom}
		if i+1 < len(ordered) {
			w.end = ordered[i+1].EffectiveFrom
		}
		windows[ordered[i].ID] = w
	}

	claimed := make(map[int64]bool, len(doses))
	entries := make([]Entry, 0, len(occurrences)+len(doses))

	for _, occ := range occurrences {
		slot := occ.ScheduledSlot
		entry := Entry{
			MedicationID: occ.MedicationID,
			Date:         occ.Date,
			Timeless:     occ.Timeless,
			Scheduled:    &slot,
		}
		due := occ.Date
		if occ.Timeless {
			due = EndOfDay(occ.Date, loc)
		}
		entry.Happened = due.Before(now)

		if match, ok := findMatch(occ, doses, windows, claimed, loc); ok {
			claimed[match.ID] = true
			doseID := match.ID
			entry.DoseID = &doseID
			took := match.Taken
			entry.TookMedication = &took
			if match.Taken && !occ.Timeless {
				delay := int(match.Date.Sub(occ.Date).Round(time.Minute) / time.Minute)
				entry.DelayMinutes = &delay
			}
		} else if entry.Happened {
			took := false
			entry.TookMedication = &took
		}

		entries = append(entries, entry)
	}

	// Unmatched doses join the view as standalone as-needed entries: ad-hoc
	// doses, doses whose slot no longer resolves, and anomaly losers alike.
	for _, d := range doses {
		if claimed[d.ID] {
			continue
		}
		doseID := d.ID
		took := d.Taken
		entries = append(entries, Entry{
			MedicationID:   d.MedicationID,
			Date:           d.Date,
			Scheduled:      nil,
			Happened:       d.Date.Before(now),
			TookMedication: &took,
			DoseID:         &doseID,
		})
	}

	sortEntries(entries, loc)
	return entries
}

func findMatch(occ models.Occurrence, doses []models.Dose, windows map[string]versionWindow, claimed map[int64]bool, loc *time.Location) (models.Dose, bool) {
	window, ok := windows[occ.VersionID]
	if !ok {
		return models.Dose{}, false
	}
	occDay := StartOfDay(occ.Date, loc)

	var best models.Dose
	found := false
	for _, d := range doses {
		if claimed[d.ID] || d.MedicationID != occ.MedicationID {
			continue
		}
		if d.Scheduled == nil || *d.Scheduled != occ.ScheduledSlot {
			continue
		}
		if d.Date.Before(window.start) {
			continue
		}
		if !window.end.IsZero() && !d.Date.Before(window.end) {
			continue
		}
		if !StartOfDay(d.Date, loc).Equal(occDay) {
			continue
		}
		if !found || moreRecentlyCreated(d, best) {
			best = d
			found = true
		}
	}
	return best, found
}

func moreRecentlyCreated(a, b models.Dose) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortEntries(entries []Entry, loc *time.Location) {
	key := func(e Entry) time.Time {
		if e.Timeless {
			return EndOfDay(e.Date, loc)
		}
		return e.Date
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ki, kj := key(entries[i]), key(entries[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		// scheduled entries ahead of ad-hoc ones at the same instant
		si, sj := entries[i].Scheduled, entries[j].Scheduled
		if (si == nil) != (sj == nil) {
			return si != nil
		}
		if si != nil && sj != nil && *si != *sj {
			return *si < *sj
		}
		return entries[i].MedicationID < entries[j].MedicationID
	})
}

// Stats computes adherence statistics over the scheduled, already-due entries
// of a view. All fields are nil when nothing has been taken yet.
func Stats(entries []Entry) Statistics {
	var past, taken int
	var delays []int
	for _, e := range entries {
		if e.Scheduled == nil || !e.Happened {
			continue
		}
		past++
		if e.TookMedication != nil && *e.TookMedication {
			taken++
			if e.DelayMinutes != nil {
				delays = append(delays, *e.DelayMinutes)
			}
		}
	}

	if taken == 0 || past == 0 {
		return Statistics{}
	}

	pct := 100 * float64(taken) / float64(past)
	stats := Statistics{TookMedication: &pct}

	if len(delays) > 0 {
		var sum, absSum float64
		for _, d := range delays {
			sum += float64(d)
			absSum += math.Abs(float64(d))
		}
		delta := sum / float64(len(delays))
		delay := absSum / float64(len(delays))
		stats.Delta = &delta
		stats.Delay = &delay
	}

	return stats
}

// RemainingQuantity computes doses left in the current fill: the medication's
// quantity minus one dose size per taken dose on or after the fill date,
// floored at zero. Nil when no fill date is set.
func RemainingQuantity(med models.Medication, doses []models.Dose) *float64 {
	if med.FillDate == nil {
		return nil
	}

	left := med.Quantity
	size := med.Dose().Quantity
	for _, d := range doses {
		if d.MedicationID != med.ID || !d.Taken {
			continue
		}
		if d.Date.Before(*med.FillDate) {
			continue
		}
		left -= size
	}
	if left < 0 {
		left = 0
	}
	return &left
}
