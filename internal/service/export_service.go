package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/schedule"
	"github.com/medtrack/medtrack-api/pkg/config"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
	"github.com/medtrack/medtrack-api/pkg/export"
)

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type urlSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

// ExportService produces downloadable patient record dumps: medications with
// their current schedules, the recent schedule view, and recorded doses.
type ExportService struct {
	patients    patientReader
	medications activeMedicationLister
	versions    patientVersionLister
	doses       doseRangeLister
	storage     reportStorage
	signer      urlSigner
	pdf         *export.PDFExporter
	json        *export.JSONExporter
	cfg         config.ExportsConfig
	logger      *zap.Logger

	now func() time.Time
}

// NewExportService constructs ExportService.
func NewExportService(patients patientReader, medications activeMedicationLister, versions patientVersionLister, doses doseRangeLister, store reportStorage, signer urlSigner, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		patients:    patients,
		medications: medications,
		versions:    versions,
		doses:       doses,
		storage:     store,
		signer:      signer,
		pdf:         export.NewPDFExporter(),
		json:        export.NewJSONExporter(),
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate renders a patient report in the requested format ("pdf" or
// "json"), stores it, and returns a signed download URL.
func (s *ExportService) Generate(ctx context.Context, patientID int64, format string) (*dto.ExportResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	format = strings.ToLower(format)
	if format != "pdf" && format != "json" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or json")
	}

	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "patient not found")
	}

	loc := patient.Location()
	now := s.now().In(loc)
	start := schedule.StartOfDay(now.AddDate(0, 0, -30), loc)
	end := schedule.StartOfDay(now.AddDate(0, 0, 7), loc)

	medications, err := s.medications.ListActive(ctx, patientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medications")
	}
	histories, err := s.versions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	doses, err := s.doses.ListForRange(ctx, patientID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doses")
	}

	var payload []byte
	switch format {
	case "pdf":
		report := s.buildReport(patient, medications, histories, doses, start, end, loc)
		payload, err = s.pdf.Render(report)
	case "json":
		payload, err = s.json.Render(s.buildDump(patient, medications, histories, doses, start, end, loc))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("dumps/patient-%d-%s.%s", patientID, exportID, format)
	if _, err := s.storage.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(exportID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.logger.Info("patient report generated",
		zap.Int64("patient_id", patientID),
		zap.String("format", format),
		zap.String("export_id", exportID))
	return &dto.ExportResponse{URL: "/downloads/" + token, Format: format, ExpiresAt: expiresAt}, nil
}

// Resolve validates a signed download token and returns the stored file path.
func (s *ExportService) Resolve(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	return s.storage.Path(relPath), nil
}

func (s *ExportService) buildReport(patient *models.Patient, medications []models.Medication, histories map[int64][]models.ScheduleVersion, doses []models.Dose, start, end time.Time, loc *time.Location) export.Report {
	report := export.Report{
		Title:    "Medication Record",
		Subtitle: fmt.Sprintf("%s - generated %s", patient.Name, s.now().In(loc).Format("Jan 2, 2006")),
	}

	medTable := export.Dataset{Headers: []string{"Medication", "Dose", "Schedule", "Remaining"}}
	medNames := make(map[int64]string, len(medications))
	for _, med := range medications {
		medNames[med.ID] = med.Name
		summary := "Unscheduled"
		if history := histories[med.ID]; len(history) > 0 {
			summary = schedule.Summary(history[len(history)-1].Definition, loc)
		}
		remaining := ""
		if left := schedule.RemainingQuantity(med, doses); left != nil {
			remaining = fmt.Sprintf("%.1f %s", *left, med.Dose().Unit)
		}
		dose := med.Dose()
		medTable.Rows = append(medTable.Rows, map[string]string{
			"Medication": med.Name,
			"Dose":       fmt.Sprintf("%.1f %s", dose.Quantity, dose.Unit),
			"Schedule":   summary,
			"Remaining":  remaining,
		})
	}
	report.Sections = append(report.Sections, export.Section{Title: "Medications", Table: medTable})

	entries := s.scheduleEntries(medications, histories, doses, start, end, loc)
	historyTable := export.Dataset{Headers: []string{"Date", "Medication", "Status"}}
	for _, e := range entries {
		status := "upcoming"
		if e.TookMedication != nil {
			if *e.TookMedication {
				status = "taken"
			} else {
				status = "missed"
			}
		}
		historyTable.Rows = append(historyTable.Rows, map[string]string{
			"Date":       e.Date.In(loc).Format("1/2/06 15:04"),
			"Medication": medNames[e.MedicationID],
			"Status":     status,
		})
	}
	report.Sections = append(report.Sections, export.Section{Title: "Recent History", Table: historyTable})

	return report
}

func (s *ExportService) buildDump(patient *models.Patient, medications []models.Medication, histories map[int64][]models.ScheduleVersion, doses []models.Dose, start, end time.Time, loc *time.Location) map[string]interface{} {
	entries := s.scheduleEntries(medications, histories, doses, start, end, loc)
	return map[string]interface{}{
		"patient":     patient,
		"medications": medications,
		"schedules":   histories,
		"doses":       doses,
		"entries":     entries,
		"stats":       schedule.Stats(entries),
	}
}

func (s *ExportService) scheduleEntries(medications []models.Medication, histories map[int64][]models.ScheduleVersion, doses []models.Dose, start, end time.Time, loc *time.Location) []schedule.Entry {
	var occurrences []models.Occurrence
	var versions []models.ScheduleVersion
	for _, med := range medications {
		history := histories[med.ID]
		if len(history) == 0 {
			continue
		}
		occurrences = append(occurrences, schedule.Expand(history, start, end, loc, 0)...)
		versions = append(versions, history...)
	}
	return schedule.Reconcile(occurrences, doses, versions, loc, s.now().In(loc))
}
