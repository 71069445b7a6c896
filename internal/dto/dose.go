package dto

import "time"

// DoseRequest captures dose create/update payloads. Scheduled references a
// slot index of the schedule version active at Date; nil records an ad-hoc or
// as-needed dose.
type DoseRequest struct {
	MedicationID int64     `json:"medication_id" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	Timezone     string    `json:"timezone"`
	Taken        bool      `json:"taken"`
	Scheduled    *int      `json:"scheduled"`
	Notes        string    `json:"notes"`
}
