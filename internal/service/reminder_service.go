package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/schedule"
	"github.com/medtrack/medtrack-api/pkg/config"
	"github.com/medtrack/medtrack-api/pkg/jobs"
)

type allPatientLister interface {
	ListAll(ctx context.Context) ([]models.Patient, error)
}

type reminderLedger interface {
	Claim(ctx context.Context, key models.ReminderKey) (bool, error)
	Release(ctx context.Context, key models.ReminderKey) error
}

// Sender delivers one reminder notification.
type Sender interface {
	Send(ctx context.Context, reminder models.Reminder) error
}

type reminderObserver interface {
	ObserveReminder(sent bool)
}

// ReminderService polls upcoming occurrences and dispatches due reminders at
// most once each. The claim on the dedup ledger is taken before sending;
// a failed send releases it so the next poll retries.
type ReminderService struct {
	patients    allPatientLister
	medications activeMedicationLister
	versions    patientVersionLister
	ledger      reminderLedger
	sender      Sender
	metrics     reminderObserver
	cfg         config.RemindersConfig
	lead        time.Duration
	logger      *zap.Logger

	queue *jobs.Queue
	now   func() time.Time
}

// NewReminderService constructs ReminderService. Dispatch happens on an
// internal worker queue sized by cfg.WorkerConcurrency.
func NewReminderService(patients allPatientLister, medications activeMedicationLister, versions patientVersionLister, ledger reminderLedger, sender Sender, metrics reminderObserver, cfg config.RemindersConfig, lead time.Duration, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReminderService{
		patients:    patients,
		medications: medications,
		versions:    versions,
		ledger:      ledger,
		sender:      sender,
		metrics:     metrics,
		cfg:         cfg,
		lead:        lead,
		logger:      logger,
		now:         time.Now,
	}
	s.queue = jobs.NewQueue("reminders", s.handleJob, jobs.QueueConfig{
		Workers:   cfg.WorkerConcurrency,
		RetryGate: s.reclaim,
		Logger:    logger,
	})
	return s
}

// reclaim gates queue retries on the dedup ledger. A failed send releases
// its claim, so the retry must win the key back before redelivery; losing
// the claim means a newer poll already owns this reminder and the retry is
// dropped.
func (s *ReminderService) reclaim(ctx context.Context, job jobs.Job) (bool, error) {
	reminder, ok := job.Payload.(models.Reminder)
	if !ok {
		return false, fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	return s.ledger.Claim(ctx, reminder.Key)
}

// Start launches the dispatch workers.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *ReminderService) Stop() {
	s.queue.Stop()
}

// Poll finds reminders due in (now-window, now] across all patients and
// enqueues each one it manages to claim.
func (s *ReminderService) Poll(ctx context.Context) error {
	now := s.now().UTC()
	windowEnd := now
	windowStart := now.Add(-s.cfg.Window)

	patients, err := s.patients.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("reminder poll: %w", err)
	}

	var enqueued int
	for _, patient := range patients {
		due, err := s.dueForPatient(ctx, patient, windowStart, windowEnd)
		if err != nil {
			s.logger.Error("failed to compute due reminders",
				zap.Int64("patient_id", patient.ID), zap.Error(err))
			continue
		}
		enqueued += due
	}

	if enqueued > 0 {
		s.logger.Info("reminders enqueued", zap.Int("count", enqueued))
	}
	return nil
}

func (s *ReminderService) dueForPatient(ctx context.Context, patient models.Patient, windowStart, windowEnd time.Time) (int, error) {
	medications, err := s.medications.ListActive(ctx, patient.ID)
	if err != nil {
		return 0, err
	}
	if len(medications) == 0 {
		return 0, nil
	}
	histories, err := s.versions.ListByPatient(ctx, patient.ID)
	if err != nil {
		return 0, err
	}

	loc := patient.Location()
	// occurrence dates run ahead of notification dates by the lead, plus a
	// day of slack for timeless entries
	rangeStart := windowStart.AddDate(0, 0, -1)
	rangeEnd := windowEnd.Add(s.lead).AddDate(0, 0, 1)

	medNames := make(map[int64]string, len(medications))
	var occurrences []models.Occurrence
	for _, med := range medications {
		medNames[med.ID] = med.Name
		history := histories[med.ID]
		if len(history) == 0 {
			continue
		}
		occurrences = append(occurrences, schedule.Expand(history, rangeStart, rangeEnd, loc, s.lead)...)
	}

	due := schedule.DueReminders(occurrences, windowStart, windowEnd)

	var enqueued int
	for _, occ := range due {
		key := models.ReminderKey{
			PatientID:     patient.ID,
			MedicationID:  occ.MedicationID,
			ScheduledSlot: occ.ScheduledSlot,
			Notification:  occ.NotificationDate.UTC(),
		}
		claimed, err := s.ledger.Claim(ctx, key)
		if err != nil {
			s.logger.Error("reminder claim failed", zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		reminder := models.Reminder{
			Key:            key,
			MedicationName: medNames[occ.MedicationID],
			Date:           occ.Date,
			Timeless:       occ.Timeless,
		}
		if err := s.queue.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("%d-%d-%d-%d", key.PatientID, key.MedicationID, key.ScheduledSlot, key.Notification.Unix()),
			Type:    "reminder",
			Payload: reminder,
		}); err != nil {
			// give the claim back so a later poll can pick this up
			if relErr := s.ledger.Release(ctx, key); relErr != nil {
				s.logger.Error("failed to release claim after enqueue failure", zap.Error(relErr))
			}
			return enqueued, err
		}
		enqueued++
	}
	return enqueued, nil
}

func (s *ReminderService) handleJob(ctx context.Context, job jobs.Job) error {
	reminder, ok := job.Payload.(models.Reminder)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}

	if err := s.sender.Send(ctx, reminder); err != nil {
		if s.metrics != nil {
			s.metrics.ObserveReminder(false)
		}
		// release the claim so either the queue retry (which must re-claim
		// through the gate) or the next poll picks this up, never both
		if relErr := s.ledger.Release(ctx, reminder.Key); relErr != nil {
			s.logger.Error("failed to release claim after send failure", zap.Error(relErr))
		}
		return fmt.Errorf("send reminder: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveReminder(true)
	}
	return nil
}

// LogSender writes reminders to the log; the default when no webhook is
// configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the reminder.
func (s *LogSender) Send(_ context.Context, reminder models.Reminder) error {
	s.logger.Info("reminder due",
		zap.Int64("patient_id", reminder.Key.PatientID),
		zap.Int64("medication_id", reminder.Key.MedicationID),
		zap.Int("slot", reminder.Key.ScheduledSlot),
		zap.String("medication", reminder.MedicationName),
		zap.Time("date", reminder.Date))
	return nil
}

// WebhookSender POSTs reminders to a configured endpoint.
type WebhookSender struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookSender constructs WebhookSender.
func NewWebhookSender(url string, logger *zap.Logger) *WebhookSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send delivers the reminder as JSON to the webhook.
func (s *WebhookSender) Send(ctx context.Context, reminder models.Reminder) error {
	payload, err := json.Marshal(map[string]interface{}{
		"patient_id":    reminder.Key.PatientID,
		"medication_id": reminder.Key.MedicationID,
		"scheduled":     reminder.Key.ScheduledSlot,
		"medication":    reminder.MedicationName,
		"date":          reminder.Date,
		"timeless":      reminder.Timeless,
	})
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build reminder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reminder: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reminder webhook returned %d", resp.StatusCode)
	}
	return nil
}
