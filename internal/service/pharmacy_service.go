package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type pharmacyRepository interface {
	ListByPatient(ctx context.Context, patientID int64) ([]models.Pharmacy, error)
	FindByID(ctx context.Context, id int64) (*models.Pharmacy, error)
	Create(ctx context.Context, pharmacy *models.Pharmacy) error
	Update(ctx context.Context, pharmacy *models.Pharmacy) error
	Delete(ctx context.Context, id int64) error
}

// PharmacyService manages a patient's pharmacies.
type PharmacyService struct {
	repo      pharmacyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPharmacyService constructs PharmacyService.
func NewPharmacyService(repo pharmacyRepository, validate *validator.Validate, logger *zap.Logger) *PharmacyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PharmacyService{repo: repo, validator: validate, logger: logger}
}

// List returns the patient's pharmacies.
func (s *PharmacyService) List(ctx context.Context, patientID int64) ([]models.Pharmacy, error) {
	pharmacies, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pharmacies")
	}
	return pharmacies, nil
}

// Get fetches one pharmacy.
func (s *PharmacyService) Get(ctx context.Context, id int64) (*models.Pharmacy, error) {
	pharmacy, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pharmacy not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pharmacy")
	}
	return pharmacy, nil
}

// Create adds a pharmacy to the patient's record.
func (s *PharmacyService) Create(ctx context.Context, patientID int64, req dto.PersonRequest) (*models.Pharmacy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pharmacy payload")
	}
	pharmacy := &models.Pharmacy{
		PatientID: patientID,
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		Hours:     req.Hours,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, pharmacy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pharmacy")
	}
	return pharmacy, nil
}

// Update modifies a pharmacy.
func (s *PharmacyService) Update(ctx context.Context, id int64, req dto.PersonRequest) (*models.Pharmacy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pharmacy payload")
	}
	pharmacy, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pharmacy.Name = req.Name
	pharmacy.Phone = req.Phone
	pharmacy.Address = req.Address
	pharmacy.Hours = req.Hours
	pharmacy.Notes = req.Notes
	if err := s.repo.Update(ctx, pharmacy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pharmacy")
	}
	return pharmacy, nil
}

// Delete removes a pharmacy.
func (s *PharmacyService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pharmacy")
	}
	return nil
}
