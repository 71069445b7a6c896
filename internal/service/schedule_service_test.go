package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/schedule"
	"github.com/medtrack/medtrack-api/pkg/config"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type stubPatientReader struct {
	patient *models.Patient
}

func (s *stubPatientReader) FindByID(ctx context.Context, id int64) (*models.Patient, error) {
	return s.patient, nil
}

type stubMedicationLister struct {
	medications []models.Medication
}

func (s *stubMedicationLister) ListActive(ctx context.Context, patientID int64) ([]models.Medication, error) {
	return s.medications, nil
}

type stubVersionLister struct {
	histories map[int64][]models.ScheduleVersion
}

func (s *stubVersionLister) ListByPatient(ctx context.Context, patientID int64) (map[int64][]models.ScheduleVersion, error) {
	return s.histories, nil
}

type stubDoseLister struct {
	doses []models.Dose
}

func (s *stubDoseLister) ListForRange(ctx context.Context, patientID int64, start, end time.Time) ([]models.Dose, error) {
	return s.doses, nil
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailyVersion(id string, medID int64, from time.Time, clocks ...string) models.ScheduleVersion {
	times := make([]models.TimeEntry, len(clocks))
	for i, clock := range clocks {
		times[i] = models.TimeEntry{Slot: i, Type: models.TimeExact, Time: clock}
	}
	return models.ScheduleVersion{
		ID:            id,
		MedicationID:  medID,
		EffectiveFrom: from,
		Definition: models.ScheduleDefinition{
			Regularly: true,
			Frequency: &models.Frequency{N: 1, Unit: models.FrequencyDay},
			Until:     &models.Until{Type: models.UntilForever},
			Times:     times,
		},
	}
}

func newTestScheduleService(patient *models.Patient, meds []models.Medication, histories map[int64][]models.ScheduleVersion, doses []models.Dose) *ScheduleService {
	svc := NewScheduleService(
		&stubPatientReader{patient: patient},
		&stubMedicationLister{medications: meds},
		&stubVersionLister{histories: histories},
		&stubDoseLister{doses: doses},
		nil, nil,
		config.ScheduleConfig{MaxRangeDays: 366},
		nil, nil,
	)
	svc.now = func() time.Time { return utcDay(2015, 5, 15) }
	return svc
}

func TestScheduleQueryMergesExpectedAndRecorded(t *testing.T) {
	patient := &models.Patient{ID: 7, Habits: models.Habits{Timezone: "Etc/UTC"}}
	meds := []models.Medication{{ID: 12, PatientID: 7, Name: "Aspirin", Status: models.MedicationActive}}
	histories := map[int64][]models.ScheduleVersion{
		12: {dailyVersion("v1", 12, utcDay(2015, 5, 1), "09:00")},
	}
	slot := 0
	doses := []models.Dose{
		{ID: 1, PatientID: 7, MedicationID: 12, Date: utcDay(2015, 5, 2).Add(9 * time.Hour), Taken: true, Scheduled: &slot},
	}

	svc := newTestScheduleService(patient, meds, histories, doses)
	resp, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "2015-05-03"})
	require.NoError(t, err)

	// three days inclusive, one occurrence per day
	require.Len(t, resp.Entries, 3)
	require.NotNil(t, resp.Entries[1].DoseID)
	assert.Equal(t, int64(1), *resp.Entries[1].DoseID)

	require.NotNil(t, resp.Stats.TookMedication)
	assert.InDelta(t, 100.0/3, *resp.Stats.TookMedication, 0.001)
}

func TestScheduleQueryVersionBoundary(t *testing.T) {
	patient := &models.Patient{ID: 7}
	meds := []models.Medication{{ID: 12, PatientID: 7, Status: models.MedicationActive}}
	histories := map[int64][]models.ScheduleVersion{
		12: {
			dailyVersion("v1", 12, utcDay(2015, 5, 1), "09:00", "21:00"),
			dailyVersion("v2", 12, utcDay(2015, 5, 11), "09:00"),
		},
	}

	svc := newTestScheduleService(patient, meds, histories, nil)
	svc.now = func() time.Time { return utcDay(2015, 6, 1) }
	resp, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "2015-05-20"})
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2*10+10)
}

func TestScheduleQueryRejectsBadDates(t *testing.T) {
	svc := newTestScheduleService(&models.Patient{ID: 7}, nil, nil, nil)

	_, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "05/01/2015", End: "2015-05-03"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidStartDate.Code, appErr.Code)

	_, err = svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "soon"})
	require.Error(t, err)
	appErr, ok = err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidEndDate.Code, appErr.Code)

	_, err = svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-03", End: "2015-05-01"})
	require.Error(t, err)
}

func TestScheduleQueryRejectsTooLongRange(t *testing.T) {
	svc := newTestScheduleService(&models.Patient{ID: 7}, nil, nil, nil)

	_, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-01-01", End: "2016-06-01"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrRangeTooLong.Code, appErr.Code)
}

func TestScheduleQueryRejectsUnknownTimezone(t *testing.T) {
	svc := newTestScheduleService(&models.Patient{ID: 7}, nil, nil, nil)

	_, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "2015-05-02", TZ: "Mars/Olympus"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidTimezone.Code, appErr.Code)
}

func TestScheduleQueryPausedMedicationContributesNothing(t *testing.T) {
	patient := &models.Patient{ID: 7}
	// ListActive already excludes paused medications; recorded doses still
	// surface as unscheduled entries
	slot := 0
	doses := []models.Dose{
		{ID: 1, PatientID: 7, MedicationID: 99, Date: utcDay(2015, 5, 2).Add(9 * time.Hour), Taken: true, Scheduled: &slot},
	}

	svc := newTestScheduleService(patient, nil, map[int64][]models.ScheduleVersion{}, doses)
	resp, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "2015-05-03"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Nil(t, resp.Entries[0].Scheduled)
}

func TestScheduleQueryStatsEmptyWhenNothingTaken(t *testing.T) {
	patient := &models.Patient{ID: 7}
	meds := []models.Medication{{ID: 12, PatientID: 7, Status: models.MedicationActive}}
	histories := map[int64][]models.ScheduleVersion{
		12: {dailyVersion("v1", 12, utcDay(2015, 5, 1), "09:00")},
	}

	svc := newTestScheduleService(patient, meds, histories, nil)
	resp, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "2015-05-03"})
	require.NoError(t, err)
	assert.Equal(t, schedule.Statistics{}, resp.Stats)
}

func TestScheduleQueryMedicationFilter(t *testing.T) {
	patient := &models.Patient{ID: 7}
	meds := []models.Medication{
		{ID: 12, PatientID: 7, Status: models.MedicationActive},
		{ID: 13, PatientID: 7, Status: models.MedicationActive},
	}
	histories := map[int64][]models.ScheduleVersion{
		12: {dailyVersion("v1", 12, utcDay(2015, 5, 1), "09:00")},
		13: {dailyVersion("v2", 13, utcDay(2015, 5, 1), "10:00")},
	}
	doses := []models.Dose{
		{ID: 1, PatientID: 7, MedicationID: 13, Date: utcDay(2015, 5, 2).Add(14 * time.Hour), Taken: true},
	}

	svc := newTestScheduleService(patient, meds, histories, doses)
	resp, err := svc.Query(context.Background(), 7, dto.ScheduleQuery{Start: "2015-05-01", End: "2015-05-03", MedicationID: 12})
	require.NoError(t, err)

	require.Len(t, resp.Entries, 3)
	for _, entry := range resp.Entries {
		assert.Equal(t, int64(12), entry.MedicationID)
	}
}
