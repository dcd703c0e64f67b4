package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/directory"
	"presence/internal/engine"
)

func evt(id, personID string, typ engine.EventType, at time.Time, late int) engine.Event {
	return engine.Event{
		ID:          id,
		PersonID:    personID,
		Date:        at.UTC().Format(engine.DateLayout),
		ScannedAt:   at.UTC(),
		Type:        typ,
		LateMinutes: late,
	}
}

func at(day, hour, min int) time.Time {
	return time.Date(2026, time.March, day, hour, min, 0, 0, time.UTC)
}

func person(id, name string, rc directory.RoleClass) directory.Person {
	return directory.Person{ID: id, FullName: name, RoleClass: rc, Active: true}
}

func TestSummarize(t *testing.T) {
	events := []engine.Event{
		evt("a", "p-1", engine.EventEntry, at(2, 8, 10), 10),
		evt("b", "p-1", engine.EventExit, at(2, 17, 0), 0),
	}
	sum := Summarize("p-1", "2026-03-02", events)

	assert.True(t, sum.Present)
	assert.Equal(t, 530, sum.WorkedMinutes)
	assert.Equal(t, 10, sum.LateMinutes)
	assert.Equal(t, 2, sum.EventCount)
	require.Len(t, sum.Sessions, 1)
}

func TestSummarize_NoEventsIsAbsentNotError(t *testing.T) {
	sum := Summarize("p-1", "2026-03-02", nil)
	assert.False(t, sum.Present)
	assert.Equal(t, 0, sum.WorkedMinutes)
	assert.Equal(t, 0, sum.EventCount)
	assert.Empty(t, sum.Sessions)
}

func TestBuildDaily(t *testing.T) {
	people := []directory.Person{
		person("p-1", "Amira Diallo", directory.RoleTeacher),
		person("p-2", "Omar Sy", directory.RoleAccountant),
		person("p-3", "Lea Martin", directory.RoleTeacher),
	}
	events := []engine.Event{
		evt("a", "p-1", engine.EventEntry, at(2, 8, 0), 0),
		evt("b", "p-1", engine.EventExit, at(2, 16, 0), 0),
		evt("c", "p-2", engine.EventEntry, at(2, 9, 0), 30),
	}

	rep := BuildDaily("2026-03-02", people, events, nil)

	assert.Equal(t, 2, rep.Stats.PresentCount)
	assert.Equal(t, 1, rep.Stats.AbsentCount)
	assert.Equal(t, 1, rep.Stats.LateCount)
	assert.Equal(t, 480, rep.Stats.TotalWorkedMinutes)
	// Average over present people only: 480 / 2.
	assert.True(t, rep.Stats.AverageWorkedMinutes.Equal(decimal.NewFromInt(240)))

	require.Len(t, rep.Rows, 3)
	// Rows sorted by name.
	assert.Equal(t, "Amira Diallo", rep.Rows[0].Person.FullName)

	teachers := rep.ByRoleClass[directory.RoleTeacher]
	assert.Equal(t, 1, teachers.PresentCount)
	assert.Equal(t, 1, teachers.AbsentCount)
	accountants := rep.ByRoleClass[directory.RoleAccountant]
	assert.Equal(t, 1, accountants.LateCount)
}

func TestBuildDaily_RoleClassFilter(t *testing.T) {
	people := []directory.Person{
		person("p-1", "Amira Diallo", directory.RoleTeacher),
		person("p-2", "Omar Sy", directory.RoleAccountant),
	}
	filter := directory.NewRoleClassSet(directory.RoleTeacher)

	rep := BuildDaily("2026-03-02", people, nil, filter)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, directory.RoleTeacher, rep.Rows[0].Person.RoleClass)
}

func TestBuildDaily_StableUnderReordering(t *testing.T) {
	people := []directory.Person{
		person("p-1", "Amira Diallo", directory.RoleTeacher),
		person("p-2", "Omar Sy", directory.RoleAccountant),
	}
	events := []engine.Event{
		evt("a", "p-1", engine.EventEntry, at(2, 8, 0), 0),
		evt("b", "p-1", engine.EventExit, at(2, 12, 0), 0),
		evt("c", "p-2", engine.EventEntry, at(2, 8, 30), 0),
	}
	reversed := []engine.Event{events[2], events[1], events[0]}

	assert.Equal(t, BuildDaily("2026-03-02", people, events, nil), BuildDaily("2026-03-02", people, reversed, nil))
}

func TestBuildRange(t *testing.T) {
	dates, err := DatesBetween("2026-03-02", "2026-03-04")
	require.NoError(t, err)

	events := []engine.Event{
		evt("a", "p-1", engine.EventEntry, at(2, 8, 0), 0),
		evt("b", "p-1", engine.EventExit, at(2, 17, 0), 0),
		// Nothing on the 3rd.
		evt("c", "p-1", engine.EventEntry, at(4, 8, 0), 0),
	}

	rep := BuildRange("p-1", "2026-03-02", "2026-03-04", events, dates)

	require.Len(t, rep.Days, 3)
	assert.True(t, rep.Days[0].Present)
	assert.False(t, rep.Days[1].Present)
	assert.True(t, rep.Days[2].Present)
	assert.Equal(t, 540, rep.Stats.TotalWorkedMinutes)
	assert.Equal(t, 1, rep.Stats.AbsentCount)

	// The open entry on the 4th shows as an open session in the timeline.
	require.Len(t, rep.Sessions, 2)
	assert.True(t, rep.Sessions[1].Open())
}

func TestDatesBetween(t *testing.T) {
	dates, err := DatesBetween("2026-02-27", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}, dates)

	_, err = DatesBetween("2026-03-02", "2026-03-01")
	assert.Error(t, err)

	_, err = DatesBetween("bogus", "2026-03-01")
	assert.Error(t, err)
}
