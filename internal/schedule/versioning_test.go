package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/models"
	appErrors "github.com/medtrack/medtrack-api/pkg/errors"
)

func dailyDefinition(clocks ...string) models.ScheduleDefinition {
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

func TestValidateRejectsRegularWithoutTimes(t *testing.T) {
	def := dailyDefinition()
	err := Validate(def)
	require.Error(t, err)

	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidSchedule.Code, appErr.Code)
}

func TestValidateRejectsBadClock(t *testing.T) {
	assert.Error(t, Validate(dailyDefinition("24:00")))
	assert.Error(t, Validate(dailyDefinition("9:5")))
	assert.NoError(t, Validate(dailyDefinition("09:05", "23:59")))
}

func TestValidateRejectsBadFrequency(t *testing.T) {
	def := dailyDefinition("09:00")
	def.Frequency = &models.Frequency{N: 0, Unit: models.FrequencyDay}
	assert.Error(t, Validate(def))

	def.Frequency = &models.Frequency{N: 1, Unit: "fortnight"}
	assert.Error(t, Validate(def))
}

func TestValidateRejectsBadUntil(t *testing.T) {
	def := dailyDefinition("09:00")
	def.Until = &models.Until{Type: models.UntilCount, Count: 0}
	assert.Error(t, Validate(def))

	def.Until = &models.Until{Type: models.UntilDate, Date: "05/01/2015"}
	assert.Error(t, Validate(def))

	def.Until = &models.Until{Type: "eventually"}
	assert.Error(t, Validate(def))
}

func TestNormalizeAssignsFreshSlots(t *testing.T) {
	def := dailyDefinition("21:00", "09:00")
	def.Times[0].Slot = 7
	def.Times[1].Slot = 7

	out := Normalize(def)
	require.Len(t, out.Times, 2)
	assert.Equal(t, 0, out.Times[0].Slot)
	assert.Equal(t, 1, out.Times[1].Slot)
}

func TestNormalizeDropsRegularFieldsWhenUnscheduled(t *testing.T) {
	def := dailyDefinition("09:00")
	def.Regularly = false

	out := Normalize(def)
	assert.Nil(t, out.Frequency)
	assert.Nil(t, out.Until)
	assert.Empty(t, out.Times)
}

func TestApplyUpdateNoopKeepsHistory(t *testing.T) {
	history := []models.ScheduleVersion{
		{
			ID:            "v1",
			MedicationID:  1,
			Version:       1,
			EffectiveFrom: day(2015, 5, 1),
			Definition:    Normalize(dailyDefinition("09:00", "21:00")),
		},
	}

	// same times in a different order with garbage slots
	incoming := dailyDefinition("21:00", "09:00")
	incoming.Times[0].Slot = 3
	incoming.Times[1].Slot = 9

	_, ok, err := ApplyUpdate(history, incoming, day(2015, 5, 10))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyUpdateAppendsNewVersionOnChange(t *testing.T) {
	history := []models.ScheduleVersion{
		{
			ID:            "v1",
			MedicationID:  1,
			Version:       1,
			EffectiveFrom: day(2015, 5, 1),
			Definition:    Normalize(dailyDefinition("09:00", "21:00")),
		},
	}

	next, ok, err := ApplyUpdate(history, dailyDefinition("09:00"), day(2015, 5, 10))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, day(2015, 5, 10), next.EffectiveFrom)
	require.Len(t, next.Definition.Times, 1)
	assert.Equal(t, 0, next.Definition.Times[0].Slot)
}

func TestApplyUpdateClampsEffectiveFrom(t *testing.T) {
	history := []models.ScheduleVersion{
		{
			ID:            "v1",
			MedicationID:  1,
			Version:       1,
			EffectiveFrom: day(2015, 5, 10),
			Definition:    Normalize(dailyDefinition("09:00")),
		},
	}

	next, ok, err := ApplyUpdate(history, dailyDefinition("09:00", "21:00"), day(2015, 5, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, next.EffectiveFrom.Before(day(2015, 5, 10)))
}

func TestApplyUpdateRejectsInvalidDefinition(t *testing.T) {
	_, _, err := ApplyUpdate(nil, dailyDefinition(), day(2015, 5, 1))
	assert.Error(t, err)
}

func TestInitialVersionIsUnscheduled(t *testing.T) {
	v := InitialVersion(day(2015, 5, 1))
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, day(2015, 5, 1), v.EffectiveFrom)
	assert.False(t, v.Definition.Regularly)
	assert.False(t, v.Definition.AsNeeded)
}

func TestEqualIgnoresSlotAssignment(t *testing.T) {
	a := Normalize(dailyDefinition("09:00", "21:00"))
	b := dailyDefinition("21:00", "09:00")
	b.Times[0].Slot = 5
	b.Times[1].Slot = 6
	assert.True(t, Equal(a, Normalize(b)))

	c := dailyDefinition("09:00", "22:00")
	assert.False(t, Equal(a, Normalize(c)))
}

func TestApplyUpdateEmptyHistoryCreatesFirstVersion(t *testing.T) {
	next, ok, err := ApplyUpdate(nil, dailyDefinition("09:00"), time.Date(2015, 5, 1, 12, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, next.Version)
}
