package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

// PharmacyRepository manages persistence for a patient's pharmacies.
type PharmacyRepository struct {
	db *sqlx.DB
}

// NewPharmacyRepository constructs a PharmacyRepository.
func NewPharmacyRepository(db *sqlx.DB) *PharmacyRepository {
	return &PharmacyRepository{db: db}
}

// ListByPatient returns the patient's pharmacies ordered by name.
func (r *PharmacyRepository) ListByPatient(ctx context.Context, patientID int64) ([]models.Pharmacy, error) {
	const query = `SELECT id, patient_id, name, phone, address, hours, notes, created_at, updated_at
        FROM pharmacies WHERE patient_id = $1 ORDER BY name ASC`
	var pharmacies []models.Pharmacy
	if err := r.db.SelectContext(ctx, &pharmacies, query, patientID); err != nil {
		return nil, fmt.Errorf("list pharmacies: %w", err)
	}
	return pharmacies, nil
}

// FindByID fetches a pharmacy by ID.
func (r *PharmacyRepository) FindByID(ctx context.Context, id int64) (*models.Pharmacy, error) {
	const query = `SELECT id, patient_id, name, phone, address, hours, notes, created_at, updated_at FROM pharmacies WHERE id = $1`
	var pharmacy models.Pharmacy
	if err := r.db.GetContext(ctx, &pharmacy, query, id); err != nil {
		return nil, err
	}
	return &pharmacy, nil
}

// Create inserts a pharmacy record.
func (r *PharmacyRepository) Create(ctx context.Context, pharmacy *models.Pharmacy) error {
	now := time.Now().UTC()
	pharmacy.CreatedAt = now
	pharmacy.UpdatedAt = now
	const query = `INSERT INTO pharmacies (patient_id, name, phone, address, hours, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &pharmacy.ID, query,
		pharmacy.PatientID, pharmacy.Name, pharmacy.Phone, pharmacy.Address, pharmacy.Hours, pharmacy.Notes,
		pharmacy.CreatedAt, pharmacy.UpdatedAt); err != nil {
		return fmt.Errorf("create pharmacy: %w", err)
	}
	return nil
}

// Update modifies a pharmacy record.
func (r *PharmacyRepository) Update(ctx context.Context, pharmacy *models.Pharmacy) error {
	pharmacy.UpdatedAt = time.Now().UTC()
	const query = `UPDATE pharmacies SET name = :name, phone = :phone, address = :address, hours = :hours, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pharmacy); err != nil {
		return fmt.Errorf("update pharmacy: %w", err)
	}
	return nil
}

// Delete removes a pharmacy.
func (r *PharmacyRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pharmacies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pharmacy: %w", err)
	}
	return nil
}
