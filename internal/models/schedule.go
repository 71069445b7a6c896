package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// FrequencyUnit is the calendar unit a regular schedule repeats in.
type FrequencyUnit string

const (
	FrequencyDay   FrequencyUnit = "day"
	FrequencyWeek  FrequencyUnit = "week"
	FrequencyMonth FrequencyUnit = "month"
)

// UntilType describes when a regular schedule terminates.
type UntilType string

const (
	UntilForever UntilType = "forever"
	UntilCount   UntilType = "count"
	UntilDate    UntilType = "date"
)

// Until is a schedule termination condition.
type Until struct {
	Type UntilType `json:"type"`
	// Count stops the schedule after this many occurrences per slot,
	// counted from the version's first period.
	Count int `json:"count,omitempty"`
	// Date is the last calendar day (YYYY-MM-DD, patient-local) occurrences
	// may fall on.
	Date string `json:"date,omitempty"`
}

// Frequency is a repeat interval: every N units.
type Frequency struct {
	N    int           `json:"n"`
	Unit FrequencyUnit `json:"unit"`
}

// TimeType distinguishes clocked from unclocked dose times.
type TimeType string

const (
	TimeExact       TimeType = "exact"
	TimeUnspecified TimeType = "unspecified"
)

// TimeEntry is one time-of-day a dose is expected on each scheduled day.
// Slot is the entry's stable identity within its owning version: doses
// reference the slot, not the clock value, so editing a time never orphans
// recorded doses.
type TimeEntry struct {
	Slot int      `json:"slot"`
	Type TimeType `json:"type"`
	// Time is an HH:MM patient-local clock value, only for TimeExact.
	Time string `json:"time,omitempty"`
}

// ScheduleDefinition describes how a medication should be taken. AsNeeded and
// Regularly are independent: both may be set, and a definition with neither is
// "unscheduled".
type ScheduleDefinition struct {
	AsNeeded               bool        `json:"as_needed"`
	Regularly              bool        `json:"regularly"`
	Until                  *Until      `json:"until,omitempty"`
	Frequency              *Frequency  `json:"frequency,omitempty"`
	Times                  []TimeEntry `json:"times,omitempty"`
	TakeWithFood           *bool       `json:"take_with_food,omitempty"`
	TakeWithMedications    []int64     `json:"take_with_medications,omitempty"`
	TakeWithoutMedications []int64     `json:"take_without_medications,omitempty"`
}

// ScheduleVersion is an immutable snapshot of a medication's dosing rules,
// valid from EffectiveFrom until superseded by the next version.
type ScheduleVersion struct {
	ID            string             `db:"id" json:"id"`
	MedicationID  int64              `db:"medication_id" json:"medication_id"`
	Version       int                `db:"version" json:"version"`
	EffectiveFrom time.Time          `db:"effective_from" json:"effective_from"`
	Definition    ScheduleDefinition `db:"-" json:"definition"`
	RawDefinition types.JSONText     `db:"definition" json:"-"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}

// ActiveUntil returns the exclusive end of this version's window given its
// successor, or the zero time when it is the latest version (open-ended).
func (v ScheduleVersion) ActiveUntil(next *ScheduleVersion) time.Time {
	if next == nil {
		return time.Time{}
	}
	return next.EffectiveFrom
}

// Contains reports whether t falls inside the version's active window
// [EffectiveFrom, next.EffectiveFrom).
func (v ScheduleVersion) Contains(t time.Time, next *ScheduleVersion) bool {
	if t.Before(v.EffectiveFrom) {
		return false
	}
	until := v.ActiveUntil(next)
	return until.IsZero() || t.Before(until)
}
