package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type patientRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Patient, error)
	ListByUser(ctx context.Context, userID string) ([]models.Patient, error)
	Create(ctx context.Context, patient *models.Patient) error
	Update(ctx context.Context, patient *models.Patient) error
	UpdateHabits(ctx context.Context, patientID int64, habits models.Habits) error
	Delete(ctx context.Context, id int64) error
	OwnedBy(ctx context.Context, patientID int64, userID string) (bool, error)
}

type shareRepository interface {
	ListForPatient(ctx context.Context, patientID int64) ([]models.Share, error)
	Upsert(ctx context.Context, share *models.Share) error
	Delete(ctx context.Context, patientID int64, userID string) error
}

// PatientService orchestrates patient records, habits and sharing.
type PatientService struct {
	repo      patientRepository
	shares    shareRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPatientService constructs PatientService.
func NewPatientService(repo patientRepository, shares shareRepository, validate *validator.Validate, logger *zap.Logger) *PatientService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientService{repo: repo, shares: shares, validator: validate, logger: logger}
}

// List returns patients owned by the user.
func (s *PatientService) List(ctx context.Context, userID string) ([]models.Patient, error) {
	patients, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list patients")
	}
	return patients, nil
}

// Get fetches one patient.
func (s *PatientService) Get(ctx context.Context, id int64) (*models.Patient, error) {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient")
	}
	return patient, nil
}

// Create registers a patient owned by the user.
func (s *PatientService) Create(ctx context.Context, userID string, req dto.PatientRequest) (*models.Patient, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid patient payload")
	}
	if err := validateTimezone(req.Habits.Timezone); err != nil {
		return nil, err
	}

	patient := &models.Patient{
		UserID:    userID,
		Name:      req.Name,
		Birthdate: req.Birthdate,
		Sex:       req.Sex,
		Habits:    req.Habits,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create patient")
	}
	s.logger.Info("patient created", zap.Int64("patient_id", patient.ID))
	return patient, nil
}

// Update modifies a patient's base fields and habits.
func (s *PatientService) Update(ctx context.Context, id int64, req dto.PatientRequest) (*models.Patient, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid patient payload")
	}
	if err := validateTimezone(req.Habits.Timezone); err != nil {
		return nil, err
	}

	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patient.Name = req.Name
	patient.Birthdate = req.Birthdate
	patient.Sex = req.Sex
	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update patient")
	}
	if err := s.repo.UpdateHabits(ctx, id, req.Habits); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update habits")
	}
	patient.Habits = req.Habits
	return patient, nil
}

// Delete removes a patient record.
func (s *PatientService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete patient")
	}
	return nil
}

// ListShares returns the grants on a patient.
func (s *PatientService) ListShares(ctx context.Context, patientID int64) ([]models.Share, error) {
	shares, err := s.shares.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shares")
	}
	return shares, nil
}

// Share grants or updates another user's access.
func (s *PatientService) Share(ctx context.Context, patientID int64, req dto.ShareRequest) (*models.Share, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid share payload")
	}
	share := &models.Share{PatientID: patientID, UserID: req.UserID, Level: req.Level}
	if err := s.shares.Upsert(ctx, share); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to share patient")
	}
	return share, nil
}

// Unshare revokes a user's access.
func (s *PatientService) Unshare(ctx context.Context, patientID int64, userID string) error {
	if err := s.shares.Delete(ctx, patientID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke share")
	}
	return nil
}

func validateTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidTimezone, "unknown timezone "+tz)
	}
	return nil
}
