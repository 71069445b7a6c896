package dto

import (
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
)

// MedicationRequest captures medication create/update payloads. Schedule is
// optional on create; when present it seeds the version history.
type MedicationRequest struct {
	Name         string                     `json:"name" validate:"required"`
	RxNorm       string                     `json:"rx_norm"`
	RxNumber     string                     `json:"rx_number"`
	NDC          string                     `json:"ndc"`
	DoseQuantity float64                    `json:"dose_quantity" validate:"gte=0"`
	DoseUnit     string                     `json:"dose_unit"`
	Route        string                     `json:"route"`
	Form         string                     `json:"form"`
	Quantity     float64                    `json:"quantity" validate:"gte=0"`
	FillDate     *time.Time                 `json:"fill_date"`
	DoctorID     *int64                     `json:"doctor_id"`
	PharmacyID   *int64                     `json:"pharmacy_id"`
	Schedule     *models.ScheduleDefinition `json:"schedule"`
}

// UpdateScheduleRequest captures PUT /medications/:id/schedule.
type UpdateScheduleRequest struct {
	Schedule models.ScheduleDefinition `json:"schedule" validate:"required"`
	// EffectiveAt defaults to now when omitted.
	EffectiveAt *time.Time `json:"effective_at"`
}

// MedicationResponse is a medication enriched with its current schedule.
type MedicationResponse struct {
	models.Medication
	Dose              models.DoseSize            `json:"dose"`
	Schedule          *models.ScheduleDefinition `json:"schedule,omitempty"`
	ScheduleVersion   int                        `json:"schedule_version,omitempty"`
	ScheduleSummary   string                     `json:"schedule_summary"`
	RemainingQuantity *float64                   `json:"remaining_quantity,omitempty"`
}
