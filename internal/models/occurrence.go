package models

import "time"

// Occurrence is a computed, non-persisted expected dose event. Timeless
// occurrences (an "unspecified" time entry) carry the local start-of-day
// instant with Timeless set.
type Occurrence struct {
	MedicationID     int64     `json:"medication_id"`
	ScheduledSlot    int       `json:"scheduled"`
	Date             time.Time `json:"date"`
	Timeless         bool      `json:"timeless,omitempty"`
	NotificationDate time.Time `json:"notification_date"`
	VersionID        string    `json:"-"`
}

// ReminderKey identifies a notification for dedup purposes.
type ReminderKey struct {
	PatientID     int64
	MedicationID  int64
	ScheduledSlot int
	Notification  time.Time
}

// Reminder is a due notification ready for dispatch.
type Reminder struct {
	Key            ReminderKey
	MedicationName string
	Date           time.Time
	Timeless       bool
}
