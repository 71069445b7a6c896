package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/models"
)

func TestDueRemindersWindowIsInclusive(t *testing.T) {
	start := day(2015, 5, 1).Add(9 * time.Hour)
	end := start.Add(5 * time.Minute)

	occs := []models.Occurrence{
		{MedicationID: 1, NotificationDate: start.Add(-time.Nanosecond)},
		{MedicationID: 2, NotificationDate: start},
		{MedicationID: 3, NotificationDate: start.Add(2 * time.Minute)},
		{MedicationID: 4, NotificationDate: end},
		{MedicationID: 5, NotificationDate: end.Add(time.Nanosecond)},
	}

	due := DueReminders(occs, start, end)
	require.Len(t, due, 3)
	assert.Equal(t, int64(2), due[0].MedicationID)
	assert.Equal(t, int64(3), due[1].MedicationID)
	assert.Equal(t, int64(4), due[2].MedicationID)
}

func TestDueRemindersEmptyInput(t *testing.T) {
	assert.Empty(t, DueReminders(nil, day(2015, 5, 1), day(2015, 5, 2)))
}

func TestDueRemindersFromExpansion(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 8), time.UTC, 15*time.Minute)

	windowStart := day(2015, 5, 3).Add(8*time.Hour + 44*time.Minute)
	due := DueReminders(occs, windowStart, windowStart.Add(5*time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, day(2015, 5, 3).Add(8*time.Hour+45*time.Minute), due[0].NotificationDate)
}
