package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medtrack/medtrack-api/internal/models"
)

// ShareRepository manages persistence for patient sharing grants.
type ShareRepository struct {
	db *sqlx.DB
}

// NewShareRepository constructs a ShareRepository.
func NewShareRepository(db *sqlx.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// ListForPatient returns all grants on a patient.
func (r *ShareRepository) ListForPatient(ctx context.Context, patientID int64) ([]models.Share, error) {
	const query = `SELECT id, patient_id, user_id, level, created_at FROM patient_shares
        WHERE patient_id = $1 ORDER BY created_at ASC`
	var shares []models.Share
	if err := r.db.SelectContext(ctx, &shares, query, patientID); err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}

// FindLevel returns the access level a user holds on a patient, or nil when
// no grant exists.
func (r *ShareRepository) FindLevel(ctx context.Context, patientID int64, userID string) (*models.AccessLevel, error) {
	const query = `SELECT level FROM patient_shares WHERE patient_id = $1 AND user_id = $2 LIMIT 1`
	var level models.AccessLevel
	if err := r.db.GetContext(ctx, &level, query, patientID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find share level: %w", err)
	}
	return &level, nil
}

// Upsert creates or updates a grant for the (patient, user) pair.
func (r *ShareRepository) Upsert(ctx context.Context, share *models.Share) error {
	share.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO patient_shares (patient_id, user_id, level, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (patient_id, user_id) DO UPDATE SET level = EXCLUDED.level
        RETURNING id`
	if err := r.db.GetContext(ctx, &share.ID, query, share.PatientID, share.UserID, share.Level, share.CreatedAt); err != nil {
		return fmt.Errorf("upsert share: %w", err)
	}
	return nil
}

// Delete revokes a grant.
func (r *ShareRepository) Delete(ctx context.Context, patientID int64, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM patient_shares WHERE patient_id = $1 AND user_id = $2`, patientID, userID); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}
