package dto

import (
	"time"

	"github.com/medtrack/medtrack-api/internal/schedule"
)

// ScheduleQuery captures GET /patients/:id/schedule query params. Dates are
// YYYY-MM-DD in the patient's timezone unless TZ overrides it.
type ScheduleQuery struct {
	Start string `form:"start" validate:"required"`
	End   string `form:"end" validate:"required"`
	TZ    string `form:"tz"`
	// MedicationID narrows the view to one medication; zero means all.
	MedicationID int64 `form:"medication_id"`
}

// ScheduleResponse is the merged expected/recorded view over a date range.
type ScheduleResponse struct {
	PatientID   int64               `json:"patient_id"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	Timezone    string              `json:"timezone"`
	Entries     []schedule.Entry    `json:"entries"`
	Stats       schedule.Statistics `json:"stats"`
	GeneratedAt time.Time           `json:"generated_at"`
}
