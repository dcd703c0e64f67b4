package engine

import (
	"math"
	"time"
)

// Admit decides whether a new scan is accepted given the most recent event
// of the day for the same person. Physical badge readers fire several
// reads per tap; everything inside the debounce window after the last
// accepted event is treated as the same tap.
//
// Returns nil when allowed, or a DuplicateScanError whose RemainingSeconds
// is the time left in the window, rounded up to whole seconds. A scan at
// exactly last+window is allowed.
func Admit(last *Event, now time.Time, window time.Duration) error {
	if last == nil || window <= 0 {
		return nil
	}
	elapsed := now.Sub(last.ScannedAt)
	if elapsed >= window {
		return nil
	}
	remaining := window - elapsed
	return &DuplicateScanError{
		PersonID:         last.PersonID,
		RemainingSeconds: int(math.Ceil(remaining.Seconds())),
	}
}

// ResolveType maps the requested event type to the applied one. Explicit
// entry/exit always wins. Auto is a two-state machine per person per day:
// no prior event or a trailing exit means entry, otherwise exit. A new
// date starts fresh, even when the previous day never logged an exit.
func ResolveType(requested RequestedType, last *Event) EventType {
	switch requested {
	case RequestedEntry:
		return EventEntry
	case RequestedExit:
		return EventExit
	}
	if last == nil || last.Type == EventExit {
		return EventEntry
	}
	return EventExit
}
