package models

import "time"

// Dose is a recorded dose event: either a response to a scheduled occurrence
// (Scheduled holds the slot index) or an ad-hoc/as-needed dose (Scheduled nil).
type Dose struct {
	ID           int64     `db:"id" json:"id"`
	PatientID    int64     `db:"patient_id" json:"patient_id"`
	MedicationID int64     `db:"medication_id" json:"medication_id"`
	Date         time.Time `db:"date" json:"date"`
	Timezone     string    `db:"timezone" json:"timezone"`
	Taken        bool      `db:"taken" json:"taken"`
	Scheduled    *int      `db:"scheduled" json:"scheduled"`
	Notes        string    `db:"notes" json:"notes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DoseFilter describes query params for listing doses.
type DoseFilter struct {
	PatientID    int64
	MedicationID int64
	Start        time.Time
	End          time.Time
	Page         int
	PageSize     int
}
