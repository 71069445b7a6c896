package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/dto"
	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

type mockMedicationRepo struct {
	medications map[int64]models.Medication
	nextID      int64
	statuses    map[int64]models.MedicationStatus
}

func (m *mockMedicationRepo) List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error) {
	var out []models.Medication
	for _, med := range m.medications {
		if med.PatientID == filter.PatientID {
			out = append(out, med)
		}
	}
	return out, len(out), nil
}

func (m *mockMedicationRepo) ListActive(ctx context.Context, patientID int64) ([]models.Medication, error) {
	var out []models.Medication
	for _, med := range m.medications {
		if med.PatientID == patientID && med.Status == models.MedicationActive {
			out = append(out, med)
		}
	}
	return out, nil
}

func (m *mockMedicationRepo) FindByID(ctx context.Context, id int64) (*models.Medication, error) {
	if med, ok := m.medications[id]; ok {
		return &med, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMedicationRepo) Create(ctx context.Context, med *models.Medication) error {
	if m.medications == nil {
		m.medications = make(map[int64]models.Medication)
	}
	m.nextID++
	med.ID = m.nextID
	m.medications[med.ID] = *med
	return nil
}

func (m *mockMedicationRepo) Update(ctx context.Context, med *models.Medication) error {
	m.medications[med.ID] = *med
	return nil
}

func (m *mockMedicationRepo) UpdateStatus(ctx context.Context, id int64, status models.MedicationStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[int64]models.MedicationStatus)
	}
	m.statuses[id] = status
	return nil
}

func (m *mockMedicationRepo) Delete(ctx context.Context, id int64) error {
	delete(m.medications, id)
	return nil
}

type mockVersionRepo struct {
	histories map[int64][]models.ScheduleVersion
	appended  []models.ScheduleVersion
}

func (m *mockVersionRepo) ListByMedication(ctx context.Context, medicationID int64) ([]models.ScheduleVersion, error) {
	return m.histories[medicationID], nil
}

func (m *mockVersionRepo) ListByPatient(ctx context.Context, patientID int64) (map[int64][]models.ScheduleVersion, error) {
	return m.histories, nil
}

func (m *mockVersionRepo) Latest(ctx context.Context, medicationID int64) (*models.ScheduleVersion, error) {
	history := m.histories[medicationID]
	if len(history) == 0 {
		return nil, sql.ErrNoRows
	}
	latest := history[len(history)-1]
	return &latest, nil
}

func (m *mockVersionRepo) Append(ctx context.Context, v *models.ScheduleVersion) error {
	if m.histories == nil {
		m.histories = make(map[int64][]models.ScheduleVersion)
	}
	if v.ID == "" {
		v.ID = "generated"
	}
	m.histories[v.MedicationID] = append(m.histories[v.MedicationID], *v)
	m.appended = append(m.appended, *v)
	return nil
}

func dailySchedule(clocks ...string) models.ScheduleDefinition {
	times := make([]models.TimeEntry, len(clocks))
	for i, clock := range clocks {
		times[i] = models.TimeEntry{Slot: i, Type: models.TimeExact, Time: clock}
	}
	return models.ScheduleDefinition{
		Regularly: true,
		Frequency: &models.Frequency{N: 1, Unit: models.FrequencyDay},
		Until:     &models.Until{Type: models.UntilForever},
		Times:     times,
	}
}

func TestMedicationCreateSeedsHistory(t *testing.T) {
	repo := &mockMedicationRepo{}
	versions := &mockVersionRepo{}
	svc := NewMedicationService(repo, versions, nil, nil, nil, nil)

	def := dailySchedule("09:00")
	resp, err := svc.Create(context.Background(), 7, dto.MedicationRequest{Name: "Aspirin", Schedule: &def})
	require.NoError(t, err)

	history := versions.histories[resp.ID]
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.False(t, history[0].Definition.Regularly)
	assert.Equal(t, 2, history[1].Version)
	assert.True(t, history[1].Definition.Regularly)
	assert.Equal(t, 2, resp.ScheduleVersion)
}

func TestMedicationCreateWithoutScheduleStaysUnscheduled(t *testing.T) {
	repo := &mockMedicationRepo{}
	versions := &mockVersionRepo{}
	svc := NewMedicationService(repo, versions, nil, nil, nil, nil)

	resp, err := svc.Create(context.Background(), 7, dto.MedicationRequest{Name: "Aspirin"})
	require.NoError(t, err)
	require.Len(t, versions.histories[resp.ID], 1)
	assert.Equal(t, "Unscheduled", resp.ScheduleSummary)
}

func TestUpdateScheduleNoopAppendsNothing(t *testing.T) {
	repo := &mockMedicationRepo{medications: map[int64]models.Medication{12: {ID: 12, PatientID: 7}}}
	versions := &mockVersionRepo{}
	svc := NewMedicationService(repo, versions, nil, nil, nil, nil)

	def := dailySchedule("09:00", "21:00")
	first, changed, err := svc.UpdateSchedule(context.Background(), 12, dto.UpdateScheduleRequest{Schedule: def})
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 1, first.Version)

	// same times reordered is not a change
	same := dailySchedule("21:00", "09:00")
	current, changed, err := svc.UpdateSchedule(context.Background(), 12, dto.UpdateScheduleRequest{Schedule: same})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first.Version, current.Version)
	assert.Len(t, versions.appended, 1)
}

func TestUpdateScheduleRealChangeAppends(t *testing.T) {
	repo := &mockMedicationRepo{medications: map[int64]models.Medication{12: {ID: 12, PatientID: 7}}}
	versions := &mockVersionRepo{}
	svc := NewMedicationService(repo, versions, nil, nil, nil, nil)

	_, _, err := svc.UpdateSchedule(context.Background(), 12, dto.UpdateScheduleRequest{Schedule: dailySchedule("09:00", "21:00")})
	require.NoError(t, err)

	next, changed, err := svc.UpdateSchedule(context.Background(), 12, dto.UpdateScheduleRequest{Schedule: dailySchedule("09:00")})
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 2, next.Version)
	require.Len(t, next.Definition.Times, 1)
	assert.Equal(t, 0, next.Definition.Times[0].Slot)
}

func TestUpdateScheduleRejectsInvalidDefinition(t *testing.T) {
	repo := &mockMedicationRepo{medications: map[int64]models.Medication{12: {ID: 12, PatientID: 7}}}
	svc := NewMedicationService(repo, &mockVersionRepo{}, nil, nil, nil, nil)

	bad := models.ScheduleDefinition{Regularly: true}
	_, _, err := svc.UpdateSchedule(context.Background(), 12, dto.UpdateScheduleRequest{Schedule: bad})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidSchedule.Code, appErr.Code)
}

func TestUpdateScheduleUnknownMedication(t *testing.T) {
	svc := NewMedicationService(&mockMedicationRepo{}, &mockVersionRepo{}, nil, nil, nil, nil)

	_, _, err := svc.UpdateSchedule(context.Background(), 99, dto.UpdateScheduleRequest{Schedule: dailySchedule("09:00")})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMedicationSetStatus(t *testing.T) {
	repo := &mockMedicationRepo{medications: map[int64]models.Medication{12: {ID: 12, PatientID: 7, Status: models.MedicationActive}}}
	svc := NewMedicationService(repo, &mockVersionRepo{}, nil, nil, nil, nil)

	require.NoError(t, svc.SetStatus(context.Background(), 12, models.MedicationPaused))
	assert.Equal(t, models.MedicationPaused, repo.statuses[12])

	err := svc.SetStatus(context.Background(), 12, "archived")
	require.Error(t, err)
}

func TestMedicationGetComputesRemaining(t *testing.T) {
	fill := time.Date(2015, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockMedicationRepo{medications: map[int64]models.Medication{
		12: {ID: 12, PatientID: 7, Quantity: 10, DoseQuantity: 2, FillDate: &fill},
	}}
	doses := &stubMedicationDoses{doses: []models.Dose{
		{ID: 1, MedicationID: 12, Date: fill.AddDate(0, 0, 1), Taken: true},
	}}
	svc := NewMedicationService(repo, &mockVersionRepo{}, doses, nil, nil, nil)

	resp, err := svc.Get(context.Background(), 12)
	require.NoError(t, err)
	require.NotNil(t, resp.RemainingQuantity)
	assert.Equal(t, 8.0, *resp.RemainingQuantity)
}

type stubMedicationDoses struct {
	doses []models.Dose
}

func (s *stubMedicationDoses) ListForMedication(ctx context.Context, medicationID int64) ([]models.Dose, error) {
	return s.doses, nil
}
