package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type doseRepository interface {
	List(ctx context.Context, filter models.DoseFilter) ([]models.Dose, int, error)
	FindByID(ctx context.Context, id int64) (*models.Dose, error)
	Create(ctx context.Context, dose *models.Dose) error
	Update(ctx context.Context, dose *models.Dose) error
	Delete(ctx context.Context, id int64) error
}

type medicationReader interface {
	FindByID(ctx context.Context, id int64) (*models.Medication, error)
}

type versionHistoryReader interface {
	ListByMedication(ctx context.Context, medicationID int64) ([]models.ScheduleVersion, error)
}

// DoseService orchestrates recorded dose events. A scheduled dose must
// reference a slot that exists in the schedule version active at the dose's
// date; the version active today is irrelevant for back-dated records.
type DoseService struct {
	repo        doseRepository
	medications medicationReader
	versions    versionHistoryReader
	cache       viewInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDoseService constructs DoseService.
func NewDoseService(repo doseRepository, medications medicationReader, versions versionHistoryReader, cache viewInvalidator, validate *validator.Validate, logger *zap.Logger) *DoseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DoseService{repo: repo, medications: medications, versions: versions, cache: cache, validator: validate, logger: logger}
}

// List returns doses with pagination metadata.
func (s *DoseService) List(ctx context.Context, filter models.DoseFilter) ([]models.Dose, *models.Pagination, error) {
	doses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list doses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return doses, pagination, nil
}

// Create records a dose event for the patient.
func (s *DoseService) Create(ctx context.Context, patientID int64, req dto.DoseRequest) (*models.Dose, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dose payload")
	}
	if err := validateTimezone(req.Timezone); err != nil {
		return nil, err
	}

	med, err := s.medications.FindByID(ctx, req.MedicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "medication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medication")
	}
	if med.PatientID != patientID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "medication belongs to another patient")
	}

	dose := &models.Dose{
		PatientID:    patientID,
		MedicationID: req.MedicationID,
		Date:         req.Date,
		Timezone:     req.Timezone,
		Taken:        req.Taken,
		Scheduled:    req.Scheduled,
		Notes:        req.Notes,
	}
	if err := s.validateSlot(ctx, dose); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, dose); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create dose")
	}
	s.invalidateViews(ctx, patientID)
	return dose, nil
}

// Update modifies a recorded dose.
func (s *DoseService) Update(ctx context.Context, id int64, req dto.DoseRequest) (*models.Dose, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dose payload")
	}
	if err := validateTimezone(req.Timezone); err != nil {
		return nil, err
	}

	dose, err := s.findDose(ctx, id)
	if err != nil {
		return nil, err
	}
	if dose.MedicationID != req.MedicationID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dose cannot move between medications")
	}

	dose.Date = req.Date
	dose.Timezone = req.Timezone
	dose.Taken = req.Taken
	dose.Scheduled = req.Scheduled
	dose.Notes = req.Notes
	if err := s.validateSlot(ctx, dose); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, dose); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update dose")
	}
	s.invalidateViews(ctx, dose.PatientID)
	return dose, nil
}

// Delete removes a dose record.
func (s *DoseService) Delete(ctx context.Context, id int64) error {
	dose, err := s.findDose(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete dose")
	}
	s.invalidateViews(ctx, dose.PatientID)
	return nil
}

// Get fetches one dose record.
func (s *DoseService) Get(ctx context.Context, id int64) (*models.Dose, error) {
	return s.findDose(ctx, id)
}

func (s *DoseService) findDose(ctx context.Context, id int64) (*models.Dose, error) {
	dose, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "dose not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dose")
	}
	return dose, nil
}

// validateSlot checks a scheduled dose against the version active at the
// dose's date.
func (s *DoseService) validateSlot(ctx context.Context, dose *models.Dose) error {
	if dose.Scheduled == nil {
		return nil
	}

	history, err := s.versions.ListByMedication(ctx, dose.MedicationID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule history")
	}

	for i := range history {
		var next *models.ScheduleVersion
		if i+1 < len(history) {
			next = &history[i+1]
		}
		if !history[i].Contains(dose.Date, next) {
			continue
		}
		for _, entry := range history[i].Definition.Times {
			if entry.Slot == *dose.Scheduled {
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrInvalidScheduled,
			fmt.Sprintf("slot %d does not exist in the schedule active at %s", *dose.Scheduled, dose.Date.Format("2006-01-02")))
	}

	return appErrors.Clone(appErrors.ErrInvalidScheduled, "no schedule active at the dose date")
}

func (s *DoseService) invalidateViews(ctx context.Context, patientID int64) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("schedule:%d:*", patientID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate schedule views", zap.Int64("patient_id", patientID), zap.Error(err))
	}
}
