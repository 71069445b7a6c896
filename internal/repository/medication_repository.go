package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

const medicationColumns = `id, patient_id, name, rx_norm, rx_number, ndc, dose_quantity, dose_unit,
        route, form, quantity, fill_date, status, doctor_id, pharmacy_id, created_at, updated_at`

// MedicationRepository manages persistence for medications. Schedule history
// lives in ScheduleVersionRepository.
type MedicationRepository struct {
	db *sqlx.DB
}

// NewMedicationRepository constructs a MedicationRepository.
func NewMedicationRepository(db *sqlx.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

// List returns medications matching the filter with total count.
func (r *MedicationRepository) List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error) {
	conditions := []string{"patient_id = $1"}
	args := []interface{}{filter.PatientID}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM medications WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		medicationColumns, where, size, offset)

	var medications []models.Medication
	if err := r.db.SelectContext(ctx, &medications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list medications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM medications WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count medications: %w", err)
	}
	return medications, total, nil
}

// ListActive returns the patient's active medications without pagination;
// schedule queries and the reminder poller always need the full set.
func (r *MedicationRepository) ListActive(ctx context.Context, patientID int64) ([]models.Medication, error) {
	query := fmt.Sprintf(`SELECT %s FROM medications WHERE patient_id = $1 AND status = $2 ORDER BY id ASC`, medicationColumns)
	var medications []models.Medication
	if err := r.db.SelectContext(ctx, &medications, query, patientID, models.MedicationActive); err != nil {
		return nil, fmt.Errorf("list active medications: %w", err)
	}
	return medications, nil
}

// FindByID fetches a medication by ID.
func (r *MedicationRepository) FindByID(ctx context.Context, id int64) (*models.Medication, error) {
	query := fmt.Sprintf(`SELECT %s FROM medications WHERE id = $1`, medicationColumns)
	var med models.Medication
	if err := r.db.GetContext(ctx, &med, query, id); err != nil {
		return nil, err
	}
	return &med, nil
}

// Create inserts a medication record.
func (r *MedicationRepository) Create(ctx context.Context, med *models.Medication) error {
	now := time.Now().UTC()
	med.CreatedAt = now
	med.UpdatedAt = now
	if med.Status == "" {
		med.Status = models.MedicationActive
	}
	const query = `INSERT INTO medications (patient_id, name, rx_norm, rx_number, ndc, dose_quantity, dose_unit,
        route, form, quantity, fill_date, status, doctor_id, pharmacy_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`
	if err := r.db.GetContext(ctx, &med.ID, query,
		med.PatientID, med.Name, med.RxNorm, med.RxNumber, med.NDC, med.DoseQuantity, med.DoseUnit,
		med.Route, med.Form, med.Quantity, med.FillDate, med.Status, med.DoctorID, med.PharmacyID,
		med.CreatedAt, med.UpdatedAt); err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

// Update modifies a medication's attributes.
func (r *MedicationRepository) Update(ctx context.Context, med *models.Medication) error {
	med.UpdatedAt = time.Now().UTC()
	const query = `UPDATE medications SET name = :name, rx_norm = :rx_norm, rx_number = :rx_number, ndc = :ndc,
        dose_quantity = :dose_quantity, dose_unit = :dose_unit, route = :route, form = :form,
        quantity = :quantity, fill_date = :fill_date, status = :status, doctor_id = :doctor_id,
        pharmacy_id = :pharmacy_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, med); err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	return nil
}

// UpdateStatus flips a medication between active and paused.
func (r *MedicationRepository) UpdateStatus(ctx context.Context, id int64, status models.MedicationStatus) error {
	const query = `UPDATE medications SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update medication status: %w", err)
	}
	return nil
}

// Delete removes a medication and, via schema cascade, its version history
// and doses.
func (r *MedicationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}
