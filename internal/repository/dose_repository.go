package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

const doseColumns = `id, patient_id, medication_id, date, timezone, taken, scheduled, notes, created_at`

// DoseRepository manages persistence for recorded dose events.
type DoseRepository struct {
	db *sqlx.DB
}

// NewDoseRepository constructs a DoseRepository.
func NewDoseRepository(db *sqlx.DB) *DoseRepository {
	return &DoseRepository{db: db}
}

// List returns doses matching the filter with total count.
func (r *DoseRepository) List(ctx context.Context, filter models.DoseFilter) ([]models.Dose, int, error) {
	conditions := []string{"patient_id = $1"}
	args := []interface{}{filter.PatientID}

	if filter.MedicationID != 0 {
		conditions = append(conditions, fmt.Sprintf("medication_id = $%d", len(args)+1))
		args = append(args, filter.MedicationID)
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(args)+1))
		args = append(args, filter.End)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM doses WHERE %s ORDER BY date ASC, id ASC LIMIT %d OFFSET %d`,
		doseColumns, where, size, offset)

	var doses []models.Dose
	if err := r.db.SelectContext(ctx, &doses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list doses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM doses WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count doses: %w", err)
	}
	return doses, total, nil
}

// ListForRange returns all of a patient's doses in [start, end) without
// pagination, for reconciliation.
func (r *DoseRepository) ListForRange(ctx context.Context, patientID int64, start, end time.Time) ([]models.Dose, error) {
	query := fmt.Sprintf(`SELECT %s FROM doses WHERE patient_id = $1 AND date >= $2 AND date < $3 ORDER BY date ASC, id ASC`, doseColumns)
	var doses []models.Dose
	if err := r.db.SelectContext(ctx, &doses, query, patientID, start, end); err != nil {
		return nil, fmt.Errorf("list doses for range: %w", err)
	}
	return doses, nil
}

// ListForMedication returns every dose recorded against a medication.
func (r *DoseRepository) ListForMedication(ctx context.Context, medicationID int64) ([]models.Dose, error) {
	query := fmt.Sprintf(`SELECT %s FROM doses WHERE medication_id = $1 ORDER BY date ASC, id ASC`, doseColumns)
	var doses []models.Dose
	if err := r.db.SelectContext(ctx, &doses, query, medicationID); err != nil {
		return nil, fmt.Errorf("list doses for medication: %w", err)
	}
	return doses, nil
}

// FindByID fetches a dose by ID.
func (r *DoseRepository) FindByID(ctx context.Context, id int64) (*models.Dose, error) {
	query := fmt.Sprintf(`SELECT %s FROM doses WHERE id = $1`, doseColumns)
	var dose models.Dose
	if err := r.db.GetContext(ctx, &dose, query, id); err != nil {
		return nil, err
	}
	return &dose, nil
}

// Create inserts a dose record.
func (r *DoseRepository) Create(ctx context.Context, dose *models.Dose) error {
	dose.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO doses (patient_id, medication_id, date, timezone, taken, scheduled, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &dose.ID, query,
		dose.PatientID, dose.MedicationID, dose.Date, dose.Timezone, dose.Taken, dose.Scheduled, dose.Notes, dose.CreatedAt); err != nil {
		return fmt.Errorf("create dose: %w", err)
	}
	return nil
}

// Update modifies a dose record.
func (r *DoseRepository) Update(ctx context.Context, dose *models.Dose) error {
	const query = `UPDATE doses SET date = :date, timezone = :timezone, taken = :taken, scheduled = :scheduled, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, dose); err != nil {
		return fmt.Errorf("update dose: %w", err)
	}
	return nil
}

// Delete removes a dose record.
func (r *DoseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM doses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete dose: %w", err)
	}
	return nil
}
