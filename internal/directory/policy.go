package directory

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision, independent of any
// calendar date. Expected arrival and departure times are stored this way
// and anchored to the event's own date at computation time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustTimeOfDay parses "HH:MM" and panics on malformed input. For defaults
// and tests only.
func MustTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

// On anchors the time of day to the calendar date of ref in loc. Comparing
// the anchored instant instead of bare times keeps exit scans after
// midnight from wrapping around.
func (t TimeOfDay) On(ref time.Time, loc *time.Location) time.Time {
	local := ref.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Policy is the attendance policy for one role class: when the person is
// expected in and out, and how close together two accepted scans may be.
type Policy struct {
	ExpectedArrival   TimeOfDay
	ExpectedDeparture TimeOfDay
	DebounceWindow    time.Duration
}

// PolicyTable maps each role class to its policy. The debounce window is a
// per-class value: supervised teacher stations absorb re-reads within 30s,
// the self-service staff station uses 5 minutes.
type PolicyTable map[RoleClass]Policy

// DefaultPolicyTable returns the inherited per-class defaults. Override via
// configuration rather than editing these.
func DefaultPolicyTable() PolicyTable {
	teacher := Policy{
		ExpectedArrival:   MustTimeOfDay("08:00"),
		ExpectedDeparture: MustTimeOfDay("17:00"),
		DebounceWindow:    30 * time.Second,
	}
	staff := Policy{
		ExpectedArrival:   MustTimeOfDay("08:30"),
		ExpectedDeparture: MustTimeOfDay("17:00"),
		DebounceWindow:    5 * time.Minute,
	}
	return PolicyTable{
		RoleTeacher:       teacher,
		RoleSupervisor:    staff,
		RoleAccountant:    staff,
		RoleAdministrator: staff,
	}
}

// Lookup returns the policy for a role class, falling back to the teacher
// policy for classes missing from the table.
func (t PolicyTable) Lookup(rc RoleClass) Policy {
	if p, ok := t[rc]; ok {
		return p
	}
	return t[RoleTeacher]
}
