package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
)

// Summary renders a definition as human-readable text for reports, e.g.
// "Daily for 5 doses - 2 events per day" or "Every 2 weeks; As needed".
func Summary(def models.ScheduleDefinition, loc *time.Location) string {
	var parts []string

	if def.Regularly && def.Frequency != nil {
		text := frequencyText(*def.Frequency)

		if def.Until != nil {
			switch def.Until.Type {
			case models.UntilCount:
				text += fmt.Sprintf(" for %d doses", def.Until.Count)
			case models.UntilDate:
				if day, err := ParseLocalDate(def.Until.Date, loc); err == nil {
					text += fmt.Sprintf(" until %s", day.Format("1/2/06"))
				}
			}
		}

		if n := len(def.Times); n == 1 {
			text += " - 1 event per day"
		} else if n > 1 {
			text += fmt.Sprintf(" - %d events per day", n)
		}

		parts = append(parts, text)
	}

	if def.AsNeeded {
		parts = append(parts, "As needed")
	}

	if len(parts) == 0 {
		return "Unscheduled"
	}
	return strings.Join(parts, "; ")
}

func frequencyText(freq models.Frequency) string {
	if freq.N == 1 {
		switch freq.Unit {
		case models.FrequencyDay:
			return "Daily"
		case models.FrequencyWeek:
			return "Weekly"
		case models.FrequencyMonth:
			return "Monthly"
		}
	}
	if freq.Unit == models.FrequencyDay {
		if freq.N == 7 {
			return "Weekly"
		}
		if freq.N == 14 {
			return "Fortnightly"
		}
	}
	if freq.Unit == models.FrequencyMonth {
		if freq.N == 3 {
			return "Quarterly"
		}
		if freq.N == 12 {
			return "Yearly"
		}
	}
	return fmt.Sprintf("Every %d %ss", freq.N, freq.Unit)
}
