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

func TestPatientRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPatientRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "birthdate", "sex", "created_at", "updated_at",
		"habits.timezone", "habits.wake", "habits.breakfast", "habits.lunch", "habits.dinner", "habits.sleep"}).
		AddRow(7, "user-1", "Frank", nil, "m", now, now, "America/New_York", "07:00", "08:00", "12:00", "18:00", "23:00")
	mock.ExpectQuery("SELECT (.+) FROM patients p").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	patient, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Frank", patient.Name)
	assert.Equal(t, "America/New_York", patient.Habits.Timezone)
	assert.Equal(t, "America/New_York", patient.Location().String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepositoryOwnedBy(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPatientRepository(db)

	mock.ExpectQuery("SELECT 1 FROM patients WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(int64(7), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM patients WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(int64(7), "stranger").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	owned, err := repo.OwnedBy(context.Background(), 7, "user-1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = repo.OwnedBy(context.Background(), 7, "stranger")
	require.NoError(t, err)
	assert.False(t, owned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPatientRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO patients").
		WithArgs("user-1", "Frank", nil, "m", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO patient_habits").
		WithArgs(int64(7), "America/New_York", "", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	patient := &models.Patient{UserID: "user-1", Name: "Frank", Sex: "m", Habits: models.Habits{Timezone: "America/New_York"}}
	require.NoError(t, repo.Create(context.Background(), patient))
	assert.Equal(t, int64(7), patient.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
