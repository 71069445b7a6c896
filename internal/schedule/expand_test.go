package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/medtrack-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func regularVersion(id string, medID int64, from time.Time, freq models.Frequency, until *models.Until, clocks ...string) models.ScheduleVersion {
	times := make([]models.TimeEntry, len(clocks))
	for i, clock := range clocks {
		if clock == "" {
			times[i] = models.TimeEntry{Slot: i, Type: models.TimeUnspecified}
		} else {
			times[i] = models.TimeEntry{Slot: i, Type: models.TimeExact, Time: clock}
		}
	}
	if until == nil {
		until = &models.Until{Type: models.UntilForever}
	}
	return models.ScheduleVersion{
		ID:            id,
		MedicationID:  medID,
		EffectiveFrom: from,
		Definition: models.ScheduleDefinition{
			Regularly: true,
			Frequency: &freq,
			Until:     until,
			Times:     times,
		},
	}
}

func TestExpandDailyConsecutiveOccurrencesOnePeriodApart(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 8), time.UTC, 0)

	require.Len(t, occs, 7)
	for i := 1; i < len(occs); i++ {
		assert.Equal(t, 24*time.Hour, occs[i].Date.Sub(occs[i-1].Date))
	}
	assert.Equal(t, time.Date(2015, 5, 1, 9, 0, 0, 0, time.UTC), occs[0].Date)
}

func TestExpandEverySecondDay(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 2, Unit: models.FrequencyDay}, nil, "08:30")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 11), time.UTC, 0)

	require.Len(t, occs, 5)
	for i := 1; i < len(occs); i++ {
		assert.Equal(t, 48*time.Hour, occs[i].Date.Sub(occs[i-1].Date))
	}
}

func TestExpandWeekly(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 4), models.Frequency{N: 1, Unit: models.FrequencyWeek}, nil, "10:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 4), day(2015, 6, 1), time.UTC, 0)

	require.Len(t, occs, 4)
	for i := 1; i < len(occs); i++ {
		assert.Equal(t, 7*24*time.Hour, occs[i].Date.Sub(occs[i-1].Date))
	}
}

func TestExpandMonthlyClampsToShortMonths(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 1, 31), models.Frequency{N: 1, Unit: models.FrequencyMonth}, nil, "09:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 1, 1), day(2015, 5, 1), time.UTC, 0)

	require.Len(t, occs, 4)
	assert.Equal(t, day(2015, 1, 31).Add(9*time.Hour), occs[0].Date)
	assert.Equal(t, day(2015, 2, 28).Add(9*time.Hour), occs[1].Date)
	// stepping is anchored, so March recovers the 31st
	assert.Equal(t, day(2015, 3, 31).Add(9*time.Hour), occs[2].Date)
	assert.Equal(t, day(2015, 4, 30).Add(9*time.Hour), occs[3].Date)
}

func TestExpandIsIdempotent(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 3, Unit: models.FrequencyDay}, nil, "09:00", "21:15")
	first := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 6, 1), time.UTC, 0)
	second := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 6, 1), time.UTC, 0)
	require.Equal(t, first, second)
}

func TestExpandVersionBoundaryChangesDailyCount(t *testing.T) {
	// twice daily for ten days, then once daily
	v1 := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00", "10:00")
	v2 := regularVersion("v2", 1, day(2015, 5, 11), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")

	occs := Expand([]models.ScheduleVersion{v1, v2}, day(2015, 5, 1), day(2015, 5, 21), time.UTC, 0)
	require.Len(t, occs, 30)

	perDay := map[string]int{}
	for _, occ := range occs {
		perDay[occ.Date.Format("2006-01-02")]++
	}
	for d := 1; d <= 10; d++ {
		assert.Equal(t, 2, perDay[day(2015, 5, d).Format("2006-01-02")])
	}
	for d := 11; d <= 20; d++ {
		assert.Equal(t, 1, perDay[day(2015, 5, d).Format("2006-01-02")])
	}
}

func TestExpandNeverLeaksAcrossVersionWindows(t *testing.T) {
	v1 := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")
	v2 := regularVersion("v2", 1, day(2015, 5, 11), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")

	occs := Expand([]models.ScheduleVersion{v1, v2}, day(2015, 5, 1), day(2015, 5, 21), time.UTC, 0)
	for _, occ := range occs {
		if occ.VersionID == "v1" {
			assert.True(t, occ.Date.Before(day(2015, 5, 11)))
		} else {
			assert.False(t, occ.Date.Before(day(2015, 5, 11)))
		}
	}
}

func TestExpandUntilCountIsRangeSliceInvariant(t *testing.T) {
	until := &models.Until{Type: models.UntilCount, Count: 5}
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, until, "09:00")

	full := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 6, 1), time.UTC, 0)
	require.Len(t, full, 5)

	firstHalf := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 4), time.UTC, 0)
	secondHalf := Expand([]models.ScheduleVersion{v}, day(2015, 5, 4), day(2015, 6, 1), time.UTC, 0)
	assert.Equal(t, len(full), len(firstHalf)+len(secondHalf))
}

func TestExpandUntilDateIncludesStopDate(t *testing.T) {
	until := &models.Until{Type: models.UntilDate, Date: "2015-05-05"}
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, until, "09:00")

	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 6, 1), time.UTC, 0)
	require.Len(t, occs, 5)
	assert.Equal(t, day(2015, 5, 5).Add(9*time.Hour), occs[len(occs)-1].Date)
}

func TestExpandAsNeededOnlyProducesNothing(t *testing.T) {
	v := models.ScheduleVersion{
		ID:            "v1",
		MedicationID:  1,
		EffectiveFrom: day(2015, 5, 1),
		Definition:    models.ScheduleDefinition{AsNeeded: true},
	}
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 6, 1), time.UTC, 0)
	assert.Empty(t, occs)
}

func TestExpandZeroLengthRange(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 3), day(2015, 5, 3), time.UTC, 0)
	assert.Empty(t, occs)
}

func TestExpandTimelessSortsAfterClockedSameDay(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "", "23:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 2), time.UTC, 0)

	require.Len(t, occs, 2)
	assert.False(t, occs[0].Timeless)
	assert.True(t, occs[1].Timeless)
	assert.Equal(t, 1, occs[0].ScheduledSlot)
	assert.Equal(t, 0, occs[1].ScheduledSlot)
}

func TestExpandMidDayStartKeepsFirstTimelessDay(t *testing.T) {
	// a medication created at 14:00 with a timeless schedule is still due
	// that day
	from := day(2015, 5, 1).Add(14 * time.Hour)
	v := regularVersion("v1", 1, from, models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "")

	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 3), time.UTC, 0)
	require.Len(t, occs, 2)
	assert.True(t, occs[0].Timeless)
	assert.Equal(t, from, occs[0].Date)
	assert.Equal(t, day(2015, 5, 2), occs[1].Date)
}

func TestExpandMidDayUpdateLeavesChangeoverDayToPredecessor(t *testing.T) {
	v1 := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "")
	v2 := regularVersion("v2", 1, day(2015, 5, 3).Add(14*time.Hour), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "")

	occs := Expand([]models.ScheduleVersion{v1, v2}, day(2015, 5, 1), day(2015, 5, 5), time.UTC, 0)
	require.Len(t, occs, 4)

	// exactly one timeless dose on the changeover day, owned by v1
	assert.Equal(t, day(2015, 5, 3), occs[2].Date)
	assert.Equal(t, "v1", occs[2].VersionID)
	assert.Equal(t, day(2015, 5, 4), occs[3].Date)
	assert.Equal(t, "v2", occs[3].VersionID)
}

func TestExpandHonorsPatientTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	from := time.Date(2015, 5, 1, 0, 0, 0, 0, loc)
	v := regularVersion("v1", 1, from, models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")
	occs := Expand([]models.ScheduleVersion{v}, from, from.AddDate(0, 0, 1), loc, 0)

	require.Len(t, occs, 1)
	assert.Equal(t, time.Date(2015, 5, 1, 9, 0, 0, 0, loc), occs[0].Date.In(loc))
}

func TestExpandNotificationLead(t *testing.T) {
	v := regularVersion("v1", 1, day(2015, 5, 1), models.Frequency{N: 1, Unit: models.FrequencyDay}, nil, "09:00")
	occs := Expand([]models.ScheduleVersion{v}, day(2015, 5, 1), day(2015, 5, 2), time.UTC, 15*time.Minute)

	require.Len(t, occs, 1)
	assert.Equal(t, occs[0].Date.Add(-15*time.Minute), occs[0].NotificationDate)
}
