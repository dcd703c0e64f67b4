package report

import (
	"fmt"
	"time"

	"presence/internal/engine"
)

// maxRangeDays caps range reports at a little over a school year.
const maxRangeDays = 400

// DatesBetween expands an inclusive [from, to] date range into its date
// keys. Errors on malformed dates, reversed bounds, or oversized ranges.
func DatesBetween(from, to string) ([]string, error) {
	start, err := time.Parse(engine.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q", from)
	}
	end, err := time.Parse(engine.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q", to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s before start %s", to, from)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("range longer than %d days", maxRangeDays)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(engine.DateLayout))
	}
	return dates, nil
}
