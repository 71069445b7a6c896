package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/schedule"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type medicationRepository interface {
	List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error)
	ListActive(ctx context.Context, patientID int64) ([]models.Medication, error)
	FindByID(ctx context.Context, id int64) (*models.Medication, error)
	Create(ctx context.Context, med *models.Medication) error
	Update(ctx context.Context, med *models.Medication) error
	UpdateStatus(ctx context.Context, id int64, status models.MedicationStatus) error
	Delete(ctx context.Context, id int64) error
}

type scheduleVersionRepository interface {
	ListByMedication(ctx context.Context, medicationID int64) ([]models.ScheduleVersion, error)
	ListByPatient(ctx context.Context, patientID int64) (map[int64][]models.ScheduleVersion, error)
	Latest(ctx context.Context, medicationID int64) (*models.ScheduleVersion, error)
	Append(ctx context.Context, v *models.ScheduleVersion) error
}

type doseReader interface {
	ListForMedication(ctx context.Context, medicationID int64) ([]models.Dose, error)
}

type viewInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// MedicationService orchestrates medications and their schedule histories.
// Schedule edits go through the versioning rules: a real change appends a new
// version with fresh slot indices, an equivalent definition leaves the
// history untouched.
type MedicationService struct {
	repo      medicationRepository
	versions  scheduleVersionRepository
	doses     doseReader
	cache     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMedicationService constructs MedicationService.
func NewMedicationService(repo medicationRepository, versions scheduleVersionRepository, doses doseReader, cache viewInvalidator, validate *validator.Validate, logger *zap.Logger) *MedicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicationService{repo: repo, versions: versions, doses: doses, cache: cache, validator: validate, logger: logger}
}

// List returns a patient's medications enriched with their current schedules.
func (s *MedicationService) List(ctx context.Context, filter models.MedicationFilter) ([]dto.MedicationResponse, *models.Pagination, error) {
	medications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list medications")
	}

	histories, err := s.versions.ListByPatient(ctx, filter.PatientID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}

	responses := make([]dto.MedicationResponse, 0, len(medications))
	for _, med := range medications {
		responses = append(responses, s.buildResponse(ctx, med, histories[med.ID]))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return responses, pagination, nil
}

// Get fetches one medication with its current schedule.
func (s *MedicationService) Get(ctx context.Context, id int64) (*dto.MedicationResponse, error) {
	med, err := s.findMedication(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.versions.ListByMedication(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule history")
	}
	resp := s.buildResponse(ctx, *med, history)
	return &resp, nil
}

// History returns the medication's full schedule version history.
func (s *MedicationService) History(ctx context.Context, id int64) ([]models.ScheduleVersion, error) {
	if _, err := s.findMedication(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.versions.ListByMedication(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule history")
	}
	return history, nil
}

// Create registers a medication. The history starts with an unscheduled
// version; a schedule in the payload immediately appends version two.
func (s *MedicationService) Create(ctx context.Context, patientID int64, req dto.MedicationRequest) (*dto.MedicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid medication payload")
	}

	med := &models.Medication{
		PatientID:    patientID,
		Name:         req.Name,
		RxNorm:       req.RxNorm,
		RxNumber:     req.RxNumber,
		NDC:          req.NDC,
		DoseQuantity: req.DoseQuantity,
		DoseUnit:     req.DoseUnit,
		Route:        req.Route,
		Form:         req.Form,
		Quantity:     req.Quantity,
		FillDate:     req.FillDate,
		DoctorID:     req.DoctorID,
		PharmacyID:   req.PharmacyID,
		Status:       models.MedicationActive,
	}
	if err := s.repo.Create(ctx, med); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create medication")
	}

	now := time.Now().UTC()
	initial := schedule.InitialVersion(now)
	initial.MedicationID = med.ID
	if err := s.versions.Append(ctx, &initial); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed schedule history")
	}
	history := []models.ScheduleVersion{initial}

	if req.Schedule != nil {
		next, ok, err := schedule.ApplyUpdate(history, *req.Schedule, now)
		if err != nil {
			return nil, err
		}
		if ok {
			next.MedicationID = med.ID
			if err := s.versions.Append(ctx, &next); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
			}
			history = append(history, next)
		}
	}

	s.invalidateViews(ctx, patientID)
	s.logger.Info("medication created", zap.Int64("medication_id", med.ID), zap.Int64("patient_id", patientID))
	resp := s.buildResponse(ctx, *med, history)
	return &resp, nil
}

// Update modifies a medication's attributes; the schedule is managed
// separately through UpdateSchedule.
func (s *MedicationService) Update(ctx context.Context, id int64, req dto.MedicationRequest) (*dto.MedicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid medication payload")
	}

	med, err := s.findMedication(ctx, id)
	if err != nil {
		return nil, err
	}

	med.Name = req.Name
	med.RxNorm = req.RxNorm
	med.RxNumber = req.RxNumber
	med.NDC = req.NDC
	med.DoseQuantity = req.DoseQuantity
	med.DoseUnit = req.DoseUnit
	med.Route = req.Route
	med.Form = req.Form
	med.Quantity = req.Quantity
	med.FillDate = req.FillDate
	med.DoctorID = req.DoctorID
	med.PharmacyID = req.PharmacyID

	if err := s.repo.Update(ctx, med); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update medication")
	}

	history, err := s.versions.ListByMedication(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule history")
	}

	s.invalidateViews(ctx, med.PatientID)
	resp := s.buildResponse(ctx, *med, history)
	return &resp, nil
}

// UpdateSchedule runs the versioning rules against the medication's history.
// It returns the version now in effect and whether a new one was appended.
func (s *MedicationService) UpdateSchedule(ctx context.Context, id int64, req dto.UpdateScheduleRequest) (*models.ScheduleVersion, bool, error) {
	med, err := s.findMedication(ctx, id)
	if err != nil {
		return nil, false, err
	}

	history, err := s.versions.ListByMedication(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule history")
	}

	effectiveAt := time.Now().UTC()
	if req.EffectiveAt != nil {
		effectiveAt = req.EffectiveAt.UTC()
	}

	next, ok, err := schedule.ApplyUpdate(history, req.Schedule, effectiveAt)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		latest := history[len(history)-1]
		return &latest, false, nil
	}

	next.MedicationID = id
	if err := s.versions.Append(ctx, &next); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule version")
	}

	s.invalidateViews(ctx, med.PatientID)
	s.logger.Info("schedule version appended",
		zap.Int64("medication_id", id),
		zap.Int("version", next.Version))
	return &next, true, nil
}

// SetStatus pauses or resumes a medication.
func (s *MedicationService) SetStatus(ctx context.Context, id int64, status models.MedicationStatus) error {
	med, err := s.findMedication(ctx, id)
	if err != nil {
		return err
	}
	if status != models.MedicationActive && status != models.MedicationPaused {
		return appErrors.Clone(appErrors.ErrValidation, "status must be active or paused")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	s.invalidateViews(ctx, med.PatientID)
	return nil
}

// Delete removes a medication with its history and doses.
func (s *MedicationService) Delete(ctx context.Context, id int64) error {
	med, err := s.findMedication(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete medication")
	}
	s.invalidateViews(ctx, med.PatientID)
	return nil
}

func (s *MedicationService) findMedication(ctx context.Context, id int64) (*models.Medication, error) {
	med, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "medication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medication")
	}
	return med, nil
}

func (s *MedicationService) buildResponse(ctx context.Context, med models.Medication, history []models.ScheduleVersion) dto.MedicationResponse {
	resp := dto.MedicationResponse{
		Medication:      med,
		Dose:            med.Dose(),
		ScheduleSummary: schedule.Summary(models.ScheduleDefinition{}, time.UTC),
	}

	if len(history) > 0 {
		latest := history[len(history)-1]
		def := latest.Definition
		resp.Schedule = &def
		resp.ScheduleVersion = latest.Version
		resp.ScheduleSummary = schedule.Summary(def, time.UTC)
	}

	if med.FillDate != nil && s.doses != nil {
		doses, err := s.doses.ListForMedication(ctx, med.ID)
		if err != nil {
			s.logger.Warn("failed to compute remaining quantity", zap.Int64("medication_id", med.ID), zap.Error(err))
		} else {
			resp.RemainingQuantity = schedule.RemainingQuantity(med, doses)
		}
	}

	return resp
}

func (s *MedicationService) invalidateViews(ctx context.Context, patientID int64) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("schedule:%d:*", patientID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate schedule views", zap.Int64("patient_id", patientID), zap.Error(err))
	}
}
