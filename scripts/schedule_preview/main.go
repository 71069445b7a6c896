// Command schedule_preview expands a schedule definition over a date range
// and prints the resulting occurrences. Useful for eyeballing versioning and
// frequency behavior without a running server.
//
//	go run ./scripts/schedule_preview -definition schedule.json \
//	    -start 2015-05-01 -end 2015-05-31 -tz America/New_York
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
	"github.com/medtrack/medtrack-api/internal/schedule"
)

func main() {
	var (
		definitionPath string
		startRaw       string
		endRaw         string
		tz             string
		lead           time.Duration
	)

	flag.StringVar(&definitionPath, "definition", "", "Path to a schedule definition JSON file")
	flag.StringVar(&startRaw, "start", "", "Range start (YYYY-MM-DD)")
	flag.StringVar(&endRaw, "end", "", "Range end (YYYY-MM-DD, exclusive)")
	flag.StringVar(&tz, "tz", "UTC", "IANA timezone for expansion")
	flag.DurationVar(&lead, "lead", 0, "Notification lead time (e.g. 15m)")
	flag.Parse()

	if definitionPath == "" || startRaw == "" || endRaw == "" {
		flag.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(definitionPath)
	if err != nil {
		log.Fatalf("failed to read definition: %v", err)
	}
	var def models.ScheduleDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		log.Fatalf("failed to parse definition: %v", err)
	}
	def = schedule.Normalize(def)
	if err := schedule.Validate(def); err != nil {
		log.Fatalf("invalid definition: %v", err)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("unknown timezone %q: %v", tz, err)
	}
	start, err := schedule.ParseLocalDate(startRaw, loc)
	if err != nil {
		log.Fatalf("invalid start date: %v", err)
	}
	end, err := schedule.ParseLocalDate(endRaw, loc)
	if err != nil {
		log.Fatalf("invalid end date: %v", err)
	}

	version := schedule.InitialVersion(start)
	version.Definition = def

	fmt.Printf("Schedule: %s\n", schedule.Summary(def, loc))
	occurrences := schedule.Expand([]models.ScheduleVersion{version}, start, end, loc, lead)
	for _, occ := range occurrences {
		clock := occ.Date.In(loc).Format("15:04")
		if occ.Timeless {
			clock = "--:--"
		}
		fmt.Printf("%s  %s  slot=%d  notify=%s\n",
			occ.Date.In(loc).Format("Mon 2006-01-02"), clock,
			occ.ScheduledSlot, occ.NotificationDate.In(loc).Format("15:04"))
	}
	fmt.Printf("%d occurrence(s)\n", len(occurrences))
}
