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

func doseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "patient_id", "medication_id", "date", "timezone", "taken", "scheduled", "notes", "created_at"})
}

func TestDoseRepositoryListForRange(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDoseRepository(db)

	start := time.Date(2015, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	slot := 0

	mock.ExpectQuery("SELECT (.+) FROM doses WHERE patient_id = \\$1 AND date >= \\$2 AND date < \\$3").
		WithArgs(int64(7), start, end).
		WillReturnRows(doseRows().
			AddRow(1, 7, 12, start.Add(9*time.Hour), "Etc/UTC", true, slot, "", start.Add(9*time.Hour)))

	doses, err := repo.ListForRange(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.Len(t, doses, 1)
	require.NotNil(t, doses[0].Scheduled)
	assert.Equal(t, 0, *doses[0].Scheduled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDoseRepository(db)

	at := time.Date(2015, 5, 1, 9, 5, 0, 0, time.UTC)
	slot := 1
	mock.ExpectQuery("INSERT INTO doses").
		WithArgs(int64(7), int64(12), at, "Etc/UTC", true, &slot, "after breakfast", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))

	dose := &models.Dose{PatientID: 7, MedicationID: 12, Date: at, Timezone: "Etc/UTC", Taken: true, Scheduled: &slot, Notes: "after breakfast"}
	require.NoError(t, repo.Create(context.Background(), dose))
	assert.Equal(t, int64(31), dose.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoseRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDoseRepository(db)

	mock.ExpectExec("DELETE FROM doses WHERE id = \\$1").
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 31))
	assert.NoError(t, mock.ExpectationsWereMet())
}
