package engine

import "time"

// EventType says whether a scan opened or closed presence.
type EventType string

const (
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
)

// RequestedType is what the scan request asked for. Auto defers to the
// last-event state machine.
type RequestedType string

const (
	RequestedEntry RequestedType = "entry"
	RequestedExit  RequestedType = "exit"
	RequestedAuto  RequestedType = "auto"
)

// Event is the central attendance fact. Rows are append-only: never
// updated, never deleted. Corrections are new events.
type Event struct {
	ID                    string     `json:"id"`
	PersonID              string     `json:"person_id"`
	SupervisorID          string     `json:"supervisor_id"`
	SchoolPeriodID        string     `json:"school_period_id"`
	Date                  string     `json:"date"`
	ScannedAt             time.Time  `json:"scanned_at"`
	Type                  EventType  `json:"event_type"`
	LateMinutes           int        `json:"late_minutes"`
	EarlyDepartureMinutes int        `json:"early_departure_minutes"`
	RawToken              string     `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
}

// DateLayout is the calendar-day key format used on events.
const DateLayout = "2006-01-02"

// DateOf returns the calendar day of t in loc, formatted as a date key.
// The day boundary is local: a scan at 23:59 and one at 00:01 belong to
// different days even though they are two minutes apart.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}
