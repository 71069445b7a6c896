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
	"github.com/medtrack/medtrack-api/pkg/config"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type patientReader interface {
	FindByID(ctx context.Context, id int64) (*models.Patient, error)
}

type activeMedicationLister interface {
	ListActive(ctx context.Context, patientID int64) ([]models.Medication, error)
}

type patientVersionLister interface {
	ListByPatient(ctx context.Context, patientID int64) (map[int64][]models.ScheduleVersion, error)
}

type doseRangeLister interface {
	ListForRange(ctx context.Context, patientID int64, start, end time.Time) ([]models.Dose, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type expansionObserver interface {
	ObserveExpansion(occurrences int, duration time.Duration)
}

// ScheduleService builds the merged expected/recorded schedule view for a
// patient over a date range. Paused medications contribute no occurrences;
// their recorded doses still appear.
type ScheduleService struct {
	patients    patientReader
	medications activeMedicationLister
	versions    patientVersionLister
	doses       doseRangeLister
	cache       viewCache
	metrics     expansionObserver
	cfg         config.ScheduleConfig
	validator   *validator.Validate
	logger      *zap.Logger

	// now is swapped in tests to pin "today"
	now func() time.Time
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(patients patientReader, medications activeMedicationLister, versions patientVersionLister, doses doseRangeLister, cache viewCache, metrics expansionObserver, cfg config.ScheduleConfig, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	return &ScheduleService{
		patients:    patients,
		medications: medications,
		versions:    versions,
		doses:       doses,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Query returns the schedule view for [start, end) in the patient's timezone.
func (s *ScheduleService) Query(ctx context.Context, patientID int64, query dto.ScheduleQuery) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}

	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient")
	}

	loc, err := s.resolveLocation(patient, query.TZ)
	if err != nil {
		return nil, err
	}

	start, err := schedule.ParseLocalDate(query.Start, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidStartDate, "start must be YYYY-MM-DD")
	}
	end, err := schedule.ParseLocalDate(query.End, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidEndDate, "end must be YYYY-MM-DD")
	}
	// the end date is inclusive in the API, exclusive in the engine
	end = end.AddDate(0, 0, 1)

	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrInvalidEndDate, "end must not precede start")
	}
	if end.Sub(start) > time.Duration(s.cfg.MaxRangeDays)*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrRangeTooLong,
			fmt.Sprintf("range exceeds %d days", s.cfg.MaxRangeDays))
	}

	cacheKey := fmt.Sprintf("schedule:%d:%s:%s:%s:%d", patientID, query.Start, query.End, loc.String(), query.MedicationID)
	if s.cache != nil {
		var cached dto.ScheduleResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	resp, err := s.build(ctx, patient, start, end, loc, query.MedicationID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, time.Minute); err != nil {
			s.logger.Warn("failed to cache schedule view", zap.Error(err))
		}
	}
	return resp, nil
}

func (s *ScheduleService) build(ctx context.Context, patient *models.Patient, start, end time.Time, loc *time.Location, medicationID int64) (*dto.ScheduleResponse, error) {
	medications, err := s.medications.ListActive(ctx, patient.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medications")
	}
	if medicationID != 0 {
		filtered := medications[:0]
		for _, med := range medications {
			if med.ID == medicationID {
				filtered = append(filtered, med)
			}
		}
		medications = filtered
	}
	histories, err := s.versions.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	doses, err := s.doses.ListForRange(ctx, patient.ID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doses")
	}
	if medicationID != 0 {
		kept := doses[:0]
		for _, dose := range doses {
			if dose.MedicationID == medicationID {
				kept = append(kept, dose)
			}
		}
		doses = kept
	}

	began := time.Now()
	var occurrences []models.Occurrence
	var versions []models.ScheduleVersion
	for _, med := range medications {
		history := histories[med.ID]
		if len(history) == 0 {
			continue
		}
		occurrences = append(occurrences, schedule.Expand(history, start, end, loc, s.cfg.NotificationLead)...)
		versions = append(versions, history...)
	}
	if s.metrics != nil {
		s.metrics.ObserveExpansion(len(occurrences), time.Since(began))
	}

	entries := schedule.Reconcile(occurrences, doses, versions, loc, s.now().In(loc))

	return &dto.ScheduleResponse{
		PatientID:   patient.ID,
		Start:       start,
		End:         end,
		Timezone:    loc.String(),
		Entries:     entries,
		Stats:       schedule.Stats(entries),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *ScheduleService) resolveLocation(patient *models.Patient, override string) (*time.Location, error) {
	tz := override
	if tz == "" {
		tz = patient.Habits.Timezone
	}
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimezone, "unknown timezone "+tz)
	}
	return loc, nil
}
