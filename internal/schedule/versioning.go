package schedule

import (
	"sort"
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

// Normalize fills defaults and assigns fresh slot indices (0..k-1 in input
// order). Fields that only apply to regular schedules are dropped when
// Regularly is false so that equality checks see a canonical shape.
func Normalize(def models.ScheduleDefinition) models.ScheduleDefinition {
	out := models.ScheduleDefinition{
		AsNeeded:  def.AsNeeded,
		Regularly: def.Regularly,
	}
	if !def.Regularly {
		return out
	}

	out.Until = def.Until
	if out.Until == nil {
		out.Until = &models.Until{Type: models.UntilForever}
	}
	out.Frequency = def.Frequency
	out.TakeWithFood = def.TakeWithFood
	out.TakeWithMedications = def.TakeWithMedications
	out.TakeWithoutMedications = def.TakeWithoutMedications

	out.Times = make([]models.TimeEntry, len(def.Times))
	for i, entry := range def.Times {
		out.Times[i] = models.TimeEntry{Slot: i, Type: entry.Type, Time: entry.Time}
	}
	return out
}

// Validate rejects malformed definitions before they reach the version
// history. It expects an already-normalized definition.
func Validate(def models.ScheduleDefinition) error {
	if !def.Regularly {
		return nil
	}

	if len(def.Times) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidSchedule, "regular schedule requires at least one time")
	}
	for _, entry := range def.Times {
		switch entry.Type {
		case models.TimeExact:
			if !ValidClock(entry.Time) {
				return appErrors.Clone(appErrors.ErrInvalidSchedule, "exact time must be HH:MM")
			}
		case models.TimeUnspecified:
			// no clock value
		default:
			return appErrors.Clone(appErrors.ErrInvalidSchedule, "unrecognized time type")
		}
	}

	if def.Frequency == nil || def.Frequency.N < 1 {
		return appErrors.Clone(appErrors.ErrInvalidSchedule, "frequency requires a positive n")
	}
	switch def.Frequency.Unit {
	case models.FrequencyDay, models.FrequencyWeek, models.FrequencyMonth:
	default:
		return appErrors.Clone(appErrors.ErrInvalidSchedule, "frequency unit must be day, week or month")
	}

	switch def.Until.Type {
	case models.UntilForever:
	case models.UntilCount:
		if def.Until.Count < 1 {
			return appErrors.Clone(appErrors.ErrInvalidSchedule, "until count must be a positive integer")
		}
	case models.UntilDate:
		if !ValidDate(def.Until.Date) {
			return appErrors.Clone(appErrors.ErrInvalidSchedule, "until date must be YYYY-MM-DD")
		}
	default:
		return appErrors.Clone(appErrors.ErrInvalidSchedule, "unrecognized until type")
	}

	return nil
}

// Equal compares two normalized definitions structurally, ignoring slot
// indices. Time entries compare as a multiset of (type, clock) pairs, so
// reordering the same times is not a schedule change.
func Equal(a, b models.ScheduleDefinition) bool {
	if a.AsNeeded != b.AsNeeded || a.Regularly != b.Regularly {
		return false
	}
	if !a.Regularly {
		return true
	}

	if !untilEqual(a.Until, b.Until) {
		return false
	}
	if !frequencyEqual(a.Frequency, b.Frequency) {
		return false
	}
	if !timesEqual(a.Times, b.Times) {
		return false
	}
	if !boolPtrEqual(a.TakeWithFood, b.TakeWithFood) {
		return false
	}
	if !idListEqual(a.TakeWithMedications, b.TakeWithMedications) {
		return false
	}
	return idListEqual(a.TakeWithoutMedications, b.TakeWithoutMedications)
}

// ApplyUpdate decides whether the incoming definition starts a new schedule
// version. It returns the appended version, or ok=false when the definition
// matches the current one and the history is left untouched. EffectiveFrom is
// clamped to the latest version's to keep the history monotonic.
//
// Histories start with InitialVersion at medication creation; callers must
// seed that before applying updates, since an empty history is treated as
// version zero with nothing to compare against.
func ApplyUpdate(history []models.ScheduleVersion, def models.ScheduleDefinition, effectiveAt time.Time) (models.ScheduleVersion, bool, error) {
	normalized := Normalize(def)
	if err := Validate(normalized); err != nil {
		return models.ScheduleVersion{}, false, err
	}

	version := 1
	if len(history) > 0 {
		latest := history[len(history)-1]
		if Equal(latest.Definition, normalized) {
			return models.ScheduleVersion{}, false, nil
		}
		version = latest.Version + 1
		if effectiveAt.Before(latest.EffectiveFrom) {
			effectiveAt = latest.EffectiveFrom
		}
	}

	return models.ScheduleVersion{
		Version:       version,
		EffectiveFrom: effectiveAt,
		Definition:    normalized,
	}, true, nil
}

// InitialVersion is the unscheduled version every new medication starts with.
func InitialVersion(effectiveAt time.Time) models.ScheduleVersion {
	return models.ScheduleVersion{
		Version:       1,
		EffectiveFrom: effectiveAt,
		Definition:    models.ScheduleDefinition{},
	}
}

func untilEqual(a, b *models.Until) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case models.UntilCount:
		return a.Count == b.Count
	case models.UntilDate:
		return a.Date == b.Date
	default:
		return true
	}
}

func frequencyEqual(a, b *models.Frequency) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.N == b.N && a.Unit == b.Unit
}

func timesEqual(a, b []models.TimeEntry) bool {
	if len(a) != len(b) {
		return false
	}
	keys := func(entries []models.TimeEntry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = string(e.Type) + "|" + e.Time
		}
		sort.Strings(out)
		return out
	}
	ka, kb := keys(a), keys(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func idListEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
