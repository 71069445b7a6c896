package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

// DoctorRepository manages persistence for a patient's doctors.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs a DoctorRepository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// ListByPatient returns the patient's doctors ordered by name.
func (r *DoctorRepository) ListByPatient(ctx context.Context, patientID int64) ([]models.Doctor, error) {
	const query = `SELECT id, patient_id, name, phone, address, notes, created_at, updated_at
        FROM doctors WHERE patient_id = $1 ORDER BY name ASC`
	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, patientID); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// FindByID fetches a doctor by ID.
func (r *DoctorRepository) FindByID(ctx context.Context, id int64) (*models.Doctor, error) {
	const query = `SELECT id, patient_id, name, phone, address, notes, created_at, updated_at FROM doctors WHERE id = $1`
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// Create inserts a doctor record.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	now := time.Now().UTC()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	const query = `INSERT INTO doctors (patient_id, name, phone, address, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &doctor.ID, query,
		doctor.PatientID, doctor.Name, doctor.Phone, doctor.Address, doctor.Notes, doctor.CreatedAt, doctor.UpdatedAt); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

// Update modifies a doctor record.
func (r *DoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	doctor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE doctors SET name = :name, phone = :phone, address = :address, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

// Delete removes a doctor; medications referencing it keep a null doctor_id
// at the schema level.
func (r *DoctorRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	return nil
}
