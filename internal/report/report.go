// Package report folds events and sessions into daily and range
// statistics. Everything here is a pure aggregation: no I/O, stable under
// reordering of input.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"presence/internal/directory"
	"presence/internal/engine"
	"presence/internal/session"
)

// DailySummary is one person's attendance facts for one date.
type DailySummary struct {
	PersonID              string                `json:"person_id"`
	Date                  string                `json:"date"`
	Present               bool                  `json:"present"`
	WorkedMinutes         int                   `json:"worked_minutes"`
	LateMinutes           int                   `json:"late_minutes"`
	EarlyDepartureMinutes int                   `json:"early_departure_minutes"`
	EventCount            int                   `json:"event_count"`
	Sessions              []session.WorkSession `json:"sessions"`
}

// Summarize folds one person's events for one date.
func Summarize(personID, date string, events []engine.Event) DailySummary {
	sessions := session.Reconstruct(events)
	sum := DailySummary{
		PersonID:      personID,
		Date:          date,
		Present:       len(events) > 0,
		WorkedMinutes: session.TotalWorkedMinutes(sessions),
		EventCount:    len(events),
		Sessions:      sessions,
	}
	for _, evt := range events {
		sum.LateMinutes += evt.LateMinutes
		sum.EarlyDepartureMinutes += evt.EarlyDepartureMinutes
	}
	return sum
}

// Aggregate is the associative roll-up over a set of daily summaries.
type Aggregate struct {
	PresentCount         int             `json:"present_count"`
	AbsentCount          int             `json:"absent_count"`
	LateCount            int             `json:"late_count"`
	TotalWorkedMinutes   int             `json:"total_worked_minutes"`
	AverageWorkedMinutes decimal.Decimal `json:"average_worked_minutes"`
}

func aggregate(summaries []DailySummary) Aggregate {
	var agg Aggregate
	for _, s := range summaries {
		if s.Present {
			agg.PresentCount++
		} else {
			agg.AbsentCount++
		}
		if s.LateMinutes > 0 {
			agg.LateCount++
		}
		agg.TotalWorkedMinutes += s.WorkedMinutes
	}
	agg.AverageWorkedMinutes = decimal.Zero
	if agg.PresentCount > 0 {
		agg.AverageWorkedMinutes = decimal.NewFromInt(int64(agg.TotalWorkedMinutes)).
			Div(decimal.NewFromInt(int64(agg.PresentCount))).
			Round(2)
	}
	return agg
}

// PersonDay couples a directory row with its summary for report output.
type PersonDay struct {
	Person  directory.Person `json:"person"`
	Summary DailySummary     `json:"summary"`
}

// DailyReport is the whole-school view of one date.
type DailyReport struct {
	Date        string                             `json:"date"`
	Rows        []PersonDay                        `json:"rows"`
	Stats       Aggregate                          `json:"stats"`
	ByRoleClass map[directory.RoleClass]Aggregate `json:"by_role_class"`
}

// BuildDaily groups the date's events per person and aggregates overall
// and per role class. People with no events appear as absent rows, which
// is what makes the absence count meaningful.
func BuildDaily(date string, people []directory.Person, events []engine.Event, filter directory.RoleClassSet) DailyReport {
	byPerson := make(map[string][]engine.Event)
	for _, evt := range events {
		byPerson[evt.PersonID] = append(byPerson[evt.PersonID], evt)
	}

	rep := DailyReport{
		Date:        date,
		ByRoleClass: make(map[directory.RoleClass]Aggregate),
	}
	byClass := make(map[directory.RoleClass][]DailySummary)
	var all []DailySummary

	for _, p := range people {
		if !filter.Allows(p.RoleClass) {
			continue
		}
		sum := Summarize(p.ID, date, byPerson[p.ID])
		rep.Rows = append(rep.Rows, PersonDay{Person: p, Summary: sum})
		all = append(all, sum)
		byClass[p.RoleClass] = append(byClass[p.RoleClass], sum)
	}

	sort.Slice(rep.Rows, func(i, j int) bool {
		a, b := rep.Rows[i].Person, rep.Rows[j].Person
		if a.FullName != b.FullName {
			return a.FullName < b.FullName
		}
		return a.ID < b.ID
	})

	rep.Stats = aggregate(all)
	for rc, sums := range byClass {
		rep.ByRoleClass[rc] = aggregate(sums)
	}
	return rep
}

// RangeReport is one person's day-by-day record across a date range,
// shaped for payroll and HR consumption.
type RangeReport struct {
	PersonID string                `json:"person_id"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Days     []DailySummary        `json:"days"`
	Sessions []session.WorkSession `json:"sessions"`
	Stats    Aggregate             `json:"stats"`
}

// BuildRange folds one person's events over [from, to]. Dates inside the
// range with no events produce absent summaries.
func BuildRange(personID, from, to string, events []engine.Event, dates []string) RangeReport {
	byDate := make(map[string][]engine.Event)
	for _, evt := range events {
		byDate[evt.Date] = append(byDate[evt.Date], evt)
	}

	rep := RangeReport{PersonID: personID, From: from, To: to}
	var all []DailySummary
	for _, date := range dates {
		sum := Summarize(personID, date, byDate[date])
		rep.Days = append(rep.Days, sum)
		rep.Sessions = append(rep.Sessions, sum.Sessions...)
		all = append(all, sum)
	}
	rep.Stats = aggregate(all)
	return rep
}
