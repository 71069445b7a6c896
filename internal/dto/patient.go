package dto

import "github.com/medtrack/medtrack-api/internal/models"

// PatientRequest captures patient create/update payloads.
type PatientRequest struct {
	Name      string        `json:"name" validate:"required"`
	Birthdate *string       `json:"birthdate"`
	Sex       string        `json:"sex"`
	Habits    models.Habits `json:"habits"`
}

// ShareRequest grants or updates another user's access to a patient.
type ShareRequest struct {
	UserID string             `json:"user_id" validate:"required"`
	Level  models.AccessLevel `json:"level" validate:"required,oneof=read write"`
}

// PersonRequest captures doctor and pharmacy payloads; the two records share
// a shape apart from pharmacy opening hours.
type PersonRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
	Notes   string `json:"notes"`
}
