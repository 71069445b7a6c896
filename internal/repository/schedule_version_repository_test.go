package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/models"
)

const dailyDefinitionJSON = `{"as_needed":false,"regularly":true,"until":{"type":"forever"},"frequency":{"n":1,"unit":"day"},"times":[{"slot":0,"type":"exact","time":"09:00"}]}`

func TestScheduleVersionRepositoryListByMedication(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "medication_id", "version", "effective_from", "definition", "created_at"}).
		AddRow("v1", int64(12), 1, now.AddDate(0, 0, -10), []byte(dailyDefinitionJSON), now.AddDate(0, 0, -10)).
		AddRow("v2", int64(12), 2, now, []byte(`{"as_needed":true,"regularly":false}`), now)
	mock.ExpectQuery("SELECT (.+) FROM medication_schedule_versions WHERE medication_id = \\$1 ORDER BY effective_from ASC").
		WithArgs(int64(12)).
		WillReturnRows(rows)

	versions, err := repo.ListByMedication(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	first := versions[0]
	assert.True(t, first.Definition.Regularly)
	require.NotNil(t, first.Definition.Frequency)
	assert.Equal(t, models.FrequencyDay, first.Definition.Frequency.Unit)
	require.Len(t, first.Definition.Times, 1)
	assert.Equal(t, "09:00", first.Definition.Times[0].Time)

	assert.True(t, versions[1].Definition.AsNeeded)
	assert.False(t, versions[1].Definition.Regularly)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleVersionRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	mock.ExpectExec("INSERT INTO medication_schedule_versions").
		WithArgs(sqlmock.AnyArg(), int64(12), 3, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v := &models.ScheduleVersion{
		MedicationID:  12,
		Version:       3,
		EffectiveFrom: time.Now(),
		Definition: models.ScheduleDefinition{
			Regularly: true,
			Frequency: &models.Frequency{N: 1, Unit: models.FrequencyDay},
			Until:     &models.Until{Type: models.UntilForever},
			Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeExact, Time: "09:00"}},
		},
	}
	require.NoError(t, repo.Append(context.Background(), v))
	assert.NotEmpty(t, v.ID)
	assert.NotEmpty(t, v.RawDefinition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleVersionRepositoryListByPatientGroups(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "medication_id", "version", "effective_from", "definition", "created_at"}).
		AddRow("v1", int64(1), 1, now, []byte(dailyDefinitionJSON), now).
		AddRow("v2", int64(2), 1, now, []byte(dailyDefinitionJSON), now)
	mock.ExpectQuery("SELECT (.+) FROM medication_schedule_versions v").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	byMedication, err := repo.ListByPatient(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, byMedication, 2)
	assert.Len(t, byMedication[1], 1)
	assert.Len(t, byMedication[2], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
