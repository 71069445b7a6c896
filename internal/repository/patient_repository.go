package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

const patientColumns = `p.id, p.user_id, p.name, p.birthdate, p.sex, p.created_at, p.updated_at,
        h.timezone AS "habits.timezone", h.wake AS "habits.wake", h.breakfast AS "habits.breakfast",
        h.lunch AS "habits.lunch", h.dinner AS "habits.dinner", h.sleep AS "habits.sleep"`

// PatientRepository manages persistence for patients and their habits.
type PatientRepository struct {
	db *sqlx.DB
}

// NewPatientRepository constructs a PatientRepository.
func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// FindByID fetches a patient with habits by ID.
func (r *PatientRepository) FindByID(ctx context.Context, id int64) (*models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients p
        LEFT JOIN patient_habits h ON h.patient_id = p.id
        WHERE p.id = $1`, patientColumns)
	var patient models.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, err
	}
	return &patient, nil
}

// ListByUser returns patients the user owns, ordered by creation.
func (r *PatientRepository) ListByUser(ctx context.Context, userID string) ([]models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients p
        LEFT JOIN patient_habits h ON h.patient_id = p.id
        WHERE p.user_id = $1 ORDER BY p.created_at ASC`, patientColumns)
	var patients []models.Patient
	if err := r.db.SelectContext(ctx, &patients, query, userID); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// ListAll returns every patient with habits; the reminder poller sweeps the
// whole population each tick.
func (r *PatientRepository) ListAll(ctx context.Context) ([]models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients p
        LEFT JOIN patient_habits h ON h.patient_id = p.id
        ORDER BY p.id ASC`, patientColumns)
	var patients []models.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("list all patients: %w", err)
	}
	return patients, nil
}

// Create inserts a patient and its habits row in one transaction.
func (r *PatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create patient: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertPatient = `INSERT INTO patients (user_id, name, birthdate, sex, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := tx.GetContext(ctx, &patient.ID, insertPatient,
		patient.UserID, patient.Name, patient.Birthdate, patient.Sex, patient.CreatedAt, patient.UpdatedAt); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}

	const insertHabits = `INSERT INTO patient_habits (patient_id, timezone, wake, breakfast, lunch, dinner, sleep)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	h := patient.Habits
	if _, err := tx.ExecContext(ctx, insertHabits, patient.ID, h.Timezone, h.Wake, h.Breakfast, h.Lunch, h.Dinner, h.Sleep); err != nil {
		return fmt.Errorf("create patient habits: %w", err)
	}

	return tx.Commit()
}

// Update modifies a patient's base fields.
func (r *PatientRepository) Update(ctx context.Context, patient *models.Patient) error {
	patient.UpdatedAt = time.Now().UTC()
	const query = `UPDATE patients SET name = :name, birthdate = :birthdate, sex = :sex, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

// UpdateHabits replaces the patient's habits row.
func (r *PatientRepository) UpdateHabits(ctx context.Context, patientID int64, habits models.Habits) error {
	const query = `UPDATE patient_habits SET timezone = $2, wake = $3, breakfast = $4, lunch = $5, dinner = $6, sleep = $7
        WHERE patient_id = $1`
	if _, err := r.db.ExecContext(ctx, query, patientID,
		habits.Timezone, habits.Wake, habits.Breakfast, habits.Lunch, habits.Dinner, habits.Sleep); err != nil {
		return fmt.Errorf("update patient habits: %w", err)
	}
	return nil
}

// Delete removes a patient; dependent rows cascade at the schema level.
func (r *PatientRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

// OwnedBy reports whether the user owns the patient record.
func (r *PatientRepository) OwnedBy(ctx context.Context, patientID int64, userID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM patients WHERE id = $1 AND user_id = $2 LIMIT 1`, patientID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check patient owner: %w", err)
	}
	return true, nil
}
