package engine

import (
	"math"
	"time"

	"presence/internal/directory"
)

// Punctuality is what gets stamped onto the event at creation time. Values
// are computed once and stored so reports stay reproducible even if the
// policy changes later.
type Punctuality struct {
	LateMinutes           int
	EarlyDepartureMinutes int
}

// ceilMinutes rounds a positive duration up to whole minutes and clamps
// negatives to zero. Arriving one second past the expected time already
// counts as one late minute; this is the documented rounding rule.
func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// ComputePunctuality measures the scan against the policy's expected
// times, anchored to the scan's own calendar date in loc. Anchoring to the
// date avoids wrap-around distortion for scans shortly after midnight.
func ComputePunctuality(eventType EventType, scannedAt time.Time, policy directory.Policy, loc *time.Location) Punctuality {
	switch eventType {
	case EventEntry:
		expected := policy.ExpectedArrival.On(scannedAt, loc)
		return Punctuality{LateMinutes: ceilMinutes(scannedAt.Sub(expected))}
	case EventExit:
		expected := policy.ExpectedDeparture.On(scannedAt, loc)
		return Punctuality{EarlyDepartureMinutes: ceilMinutes(expected.Sub(scannedAt))}
	}
	return Punctuality{}
}

// WorkedMinutes is the whole-minute span between an entry and a later
// exit, clamped to zero.
func WorkedMinutes(entryAt, exitAt time.Time) int {
	d := exitAt.Sub(entryAt)
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}
