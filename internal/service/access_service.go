package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type ownershipReader interface {
	OwnedBy(ctx context.Context, patientID int64, userID string) (bool, error)
}

type shareLevelReader interface {
	FindLevel(ctx context.Context, patientID int64, userID string) (*models.AccessLevel, error)
}

// AccessService resolves what a user may do with a patient record: owners
// hold write access, everyone else goes through sharing grants.
type AccessService struct {
	patients ownershipReader
	shares   shareLevelReader
	logger   *zap.Logger
}

// NewAccessService constructs AccessService.
func NewAccessService(patients ownershipReader, shares shareLevelReader, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{patients: patients, shares: shares, logger: logger}
}

// Level returns the user's effective access level, or nil when none.
func (s *AccessService) Level(ctx context.Context, patientID int64, userID string) (*models.AccessLevel, error) {
	owned, err := s.patients.OwnedBy(ctx, patientID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve patient owner")
	}
	if owned {
		level := models.AccessWrite
		return &level, nil
	}

	level, err := s.shares.FindLevel(ctx, patientID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve share level")
	}
	return level, nil
}

// RequireRead returns ErrForbidden unless the user can read the patient.
func (s *AccessService) RequireRead(ctx context.Context, patientID int64, userID string) error {
	level, err := s.Level(ctx, patientID, userID)
	if err != nil {
		return err
	}
	if level == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "no access to patient")
	}
	return nil
}

// RequireWrite returns ErrForbidden unless the user can modify the patient.
func (s *AccessService) RequireWrite(ctx context.Context, patientID int64, userID string) error {
	level, err := s.Level(ctx, patientID, userID)
	if err != nil {
		return err
	}
	if level == nil || *level != models.AccessWrite {
		return appErrors.Clone(appErrors.ErrForbidden, "write access required")
	}
	return nil
}
