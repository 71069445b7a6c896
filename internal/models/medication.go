package models

import "time"

// MedicationStatus gates whether a medication contributes schedule events.
type MedicationStatus string

const (
	MedicationActive MedicationStatus = "active"
	MedicationPaused MedicationStatus = "paused"
)

// DoseSize is the amount taken at each dose event.
type DoseSize struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Medication is a drug a patient takes, with its versioned schedule held in a
// separate append-only history (see ScheduleVersion).
type Medication struct {
	ID           int64            `db:"id" json:"id"`
	PatientID    int64            `db:"patient_id" json:"patient_id"`
	Name         string           `db:"name" json:"name"`
	RxNorm       string           `db:"rx_norm" json:"rx_norm"`
	RxNumber     string           `db:"rx_number" json:"rx_number"`
	NDC          string           `db:"ndc" json:"ndc"`
	DoseQuantity float64          `db:"dose_quantity" json:"-"`
	DoseUnit     string           `db:"dose_unit" json:"-"`
	Route        string           `db:"route" json:"route"`
	Form         string           `db:"form" json:"form"`
	Quantity     float64          `db:"quantity" json:"quantity"`
	FillDate     *time.Time       `db:"fill_date" json:"fill_date,omitempty"`
	Status       MedicationStatus `db:"status" json:"status"`
	DoctorID     *int64           `db:"doctor_id" json:"doctor_id,omitempty"`
	PharmacyID   *int64           `db:"pharmacy_id" json:"pharmacy_id,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// Dose returns the dose size for JSON output.
func (m Medication) Dose() DoseSize {
	unit := m.DoseUnit
	if unit == "" {
		unit = "dose"
	}
	quantity := m.DoseQuantity
	if quantity <= 0 {
		quantity = 1
	}
	return DoseSize{Quantity: quantity, Unit: unit}
}

// MedicationFilter describes query params for listing medications.
type MedicationFilter struct {
	PatientID int64
	Status    string
	Page      int
	PageSize  int
}
