package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medtrack/medtrack-api/internal/models"
)

func TestSummary(t *testing.T) {
	cases := []struct {
		name string
		def  models.ScheduleDefinition
		want string
	}{
		{
			name: "unscheduled",
			def:  models.ScheduleDefinition{},
			want: "Unscheduled",
		},
		{
			name: "as needed only",
			def:  models.ScheduleDefinition{AsNeeded: true},
			want: "As needed",
		},
		{
			name: "daily single event",
			def:  Normalize(dailyDefinition("09:00")),
			want: "Daily - 1 event per day",
		},
		{
			name: "daily two events",
			def:  Normalize(dailyDefinition("09:00", "21:00")),
			want: "Daily - 2 events per day",
		},
		{
			name: "every two days",
			def: models.ScheduleDefinition{
				Regularly: true,
				Frequency: &models.Frequency{N: 2, Unit: models.FrequencyDay},
				Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeExact, Time: "09:00"}},
			},
			want: "Every 2 days - 1 event per day",
		},
		{
			name: "fortnightly",
			def: models.ScheduleDefinition{
				Regularly: true,
				Frequency: &models.Frequency{N: 14, Unit: models.FrequencyDay},
				Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeUnspecified}},
			},
			want: "Fortnightly - 1 event per day",
		},
		{
			name: "quarterly",
			def: models.ScheduleDefinition{
				Regularly: true,
				Frequency: &models.Frequency{N: 3, Unit: models.FrequencyMonth},
				Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeUnspecified}},
			},
			want: "Quarterly - 1 event per day",
		},
		{
			name: "for five doses",
			def: models.ScheduleDefinition{
				Regularly: true,
				Frequency: &models.Frequency{N: 1, Unit: models.FrequencyDay},
				Until:     &models.Until{Type: models.UntilCount, Count: 5},
				Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeExact, Time: "09:00"}},
			},
			want: "Daily for 5 doses - 1 event per day",
		},
		{
			name: "until a date",
			def: models.ScheduleDefinition{
				Regularly: true,
				Frequency: &models.Frequency{N: 1, Unit: models.FrequencyWeek},
				Until:     &models.Until{Type: models.UntilDate, Date: "2015-05-09"},
				Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeExact, Time: "10:00"}},
			},
			want: "Weekly until 5/9/15 - 1 event per day",
		},
		{
			name: "regular and as needed",
			def: models.ScheduleDefinition{
				AsNeeded:  true,
				Regularly: true,
				Frequency: &models.Frequency{N: 1, Unit: models.FrequencyDay},
				Times:     []models.TimeEntry{{Slot: 0, Type: models.TimeExact, Time: "09:00"}},
			},
			want: "Daily - 1 event per day; As needed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summary(tc.def, time.UTC))
		})
	}
}
