package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

// ScheduleVersionRepository persists the append-only schedule history of each
// medication. Rows are never updated or deleted individually; a medication's
// history only grows, and goes away with the medication.
type ScheduleVersionRepository struct {
	db *sqlx.DB
}

// NewScheduleVersionRepository constructs a ScheduleVersionRepository.
func NewScheduleVersionRepository(db *sqlx.DB) *ScheduleVersionRepository {
	return &ScheduleVersionRepository{db: db}
}

// ListByMedication returns the medication's full history ordered by
// effective_from ascending, with definitions decoded.
func (r *ScheduleVersionRepository) ListByMedication(ctx context.Context, medicationID int64) ([]models.ScheduleVersion, error) {
	const query = `SELECT id, medication_id, version, effective_from, definition, created_at
        FROM medication_schedule_versions WHERE medication_id = $1 ORDER BY effective_from ASC, version ASC`
	var versions []models.ScheduleVersion
	if err := r.db.SelectContext(ctx, &versions, query, medicationID); err != nil {
		return nil, fmt.Errorf("list schedule versions: %w", err)
	}
	if err := decodeDefinitions(versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// ListByPatient returns histories for all of a patient's medications in one
// round trip, keyed by medication ID.
func (r *ScheduleVersionRepository) ListByPatient(ctx context.Context, patientID int64) (map[int64][]models.ScheduleVersion, error) {
	const query = `SELECT v.id, v.medication_id, v.version, v.effective_from, v.definition, v.created_at
        FROM medication_schedule_versions v
        JOIN medications m ON m.id = v.medication_id
        WHERE m.patient_id = $1 ORDER BY v.effective_from ASC, v.version ASC`
	var versions []models.ScheduleVersion
	if err := r.db.SelectContext(ctx, &versions, query, patientID); err != nil {
		return nil, fmt.Errorf("list patient schedule versions: %w", err)
	}
	if err := decodeDefinitions(versions); err != nil {
		return nil, err
	}
	byMedication := make(map[int64][]models.ScheduleVersion)
	for _, v := range versions {
		byMedication[v.MedicationID] = append(byMedication[v.MedicationID], v)
	}
	return byMedication, nil
}

// Latest returns the medication's current version, or sql.ErrNoRows when the
// history is empty.
func (r *ScheduleVersionRepository) Latest(ctx context.Context, medicationID int64) (*models.ScheduleVersion, error) {
	const query = `SELECT id, medication_id, version, effective_from, definition, created_at
        FROM medication_schedule_versions WHERE medication_id = $1 ORDER BY version DESC LIMIT 1`
	var v models.ScheduleVersion
	if err := r.db.GetContext(ctx, &v, query, medicationID); err != nil {
		return nil, err
	}
	if err := decodeDefinition(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Append inserts a new version at the end of the history.
func (r *ScheduleVersionRepository) Append(ctx context.Context, v *models.ScheduleVersion) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = time.Now().UTC()

	raw, err := json.Marshal(v.Definition)
	if err != nil {
		return fmt.Errorf("encode schedule definition: %w", err)
	}
	v.RawDefinition = raw

	const query = `INSERT INTO medication_schedule_versions (id, medication_id, version, effective_from, definition, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, v.ID, v.MedicationID, v.Version, v.EffectiveFrom, v.RawDefinition, v.CreatedAt); err != nil {
		return fmt.Errorf("append schedule version: %w", err)
	}
	return nil
}

func decodeDefinitions(versions []models.ScheduleVersion) error {
	for i := range versions {
		if err := decodeDefinition(&versions[i]); err != nil {
			return err
		}
	}
	return nil
}

func decodeDefinition(v *models.ScheduleVersion) error {
	if len(v.RawDefinition) == 0 {
		return nil
	}
	if err := json.Unmarshal(v.RawDefinition, &v.Definition); err != nil {
		return fmt.Errorf("decode schedule definition for version %s: %w", v.ID, err)
	}
	return nil
}
