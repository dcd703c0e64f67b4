// Package session reconstructs work sessions from stored attendance
// events. Sessions are derived, never persisted: the same event list
// always folds to the same sessions.
package session

import (
	"sort"

	"presence/internal/engine"
)

// WorkSession pairs an entry with a later exit on the same date. Exit is
// nil for an unfinished session (the person is still present), and
// DurationMinutes is nil with it.
type WorkSession struct {
	PersonID        string        `json:"person_id"`
	Date            string        `json:"date"`
	Entry           engine.Event  `json:"entry"`
	Exit            *engine.Event `json:"exit,omitempty"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
}

// Open reports whether the session has no exit yet.
func (s WorkSession) Open() bool { return s.Exit == nil }

// Reconstruct replays a person's events and greedily pairs each exit with
// the most recent unmatched entry. An entry overwritten by a newer entry
// produces no session (the event stays in the raw timeline); an exit with
// no open entry is ignored for pairing. A trailing unmatched entry becomes
// an open session. State resets at each new date: yesterday's missing exit
// never bleeds into today.
//
// Events sharing a scanned_at are ordered by id ascending, the stable
// secondary key.
func Reconstruct(events []engine.Event) []WorkSession {
	ordered := make([]engine.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if !a.ScannedAt.Equal(b.ScannedAt) {
			return a.ScannedAt.Before(b.ScannedAt)
		}
		return a.ID < b.ID
	})

	var sessions []WorkSession
	var open *engine.Event
	currentDate := ""

	flush := func() {
		if open != nil {
			sessions = append(sessions, WorkSession{
				PersonID: open.PersonID,
				Date:     open.Date,
				Entry:    *open,
			})
			open = nil
		}
	}

	for i := range ordered {
		evt := ordered[i]
		if evt.Date != currentDate {
			flush()
			currentDate = evt.Date
		}
		switch evt.Type {
		case engine.EventEntry:
			open = &ordered[i]
		case engine.EventExit:
			if open == nil {
				continue
			}
			minutes := engine.WorkedMinutes(open.ScannedAt, evt.ScannedAt)
			exit := evt
			sessions = append(sessions, WorkSession{
				PersonID:        open.PersonID,
				Date:            open.Date,
				Entry:           *open,
				Exit:            &exit,
				DurationMinutes: &minutes,
			})
			open = nil
		}
	}
	flush()
	return sessions
}

// TotalWorkedMinutes sums the durations of closed sessions. Open sessions
// contribute nothing.
func TotalWorkedMinutes(sessions []WorkSession) int {
	total := 0
	for _, s := range sessions {
		if s.DurationMinutes != nil {
			total += *s.DurationMinutes
		}
	}
	return total
}
