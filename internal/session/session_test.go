package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/engine"
)

func evt(id string, typ engine.EventType, at time.Time) engine.Event {
	return engine.Event{
		ID:        id,
		PersonID:  "p-1",
		Date:      at.UTC().Format(engine.DateLayout),
		ScannedAt: at.UTC(),
		Type:      typ,
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 2, hour, min, 0, 0, time.UTC)
}

func TestReconstruct_SimplePair(t *testing.T) {
	sessions := Reconstruct([]engine.Event{
		evt("a", engine.EventEntry, at(8, 0)),
		evt("b", engine.EventExit, at(17, 0)),
	})

	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Open())
	assert.Equal(t, 540, *sessions[0].DurationMinutes)
	assert.Equal(t, 540, TotalWorkedMinutes(sessions))
}

func TestReconstruct_UnmatchedEntryStaysOpen(t *testing.T) {
	sessions := Reconstruct([]engine.Event{
		evt("a", engine.EventEntry, at(8, 0)),
	})

	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Open())
	assert.Nil(t, sessions[0].DurationMinutes)

	// Worked minutes for the day is zero, not an error.
	assert.Equal(t, 0, TotalWorkedMinutes(sessions))
}

func TestReconstruct_MostRecentEntryWins(t *testing.T) {
	// Two consecutive entries: the first never becomes a session, the
	// second pairs with the exit.
	sessions := Reconstruct([]engine.Event{
		evt("a", engine.EventEntry, at(8, 0)),
		evt("b", engine.EventEntry, at(9, 0)),
		evt("c", engine.EventExit, at(17, 0)),
	})

	require.Len(t, sessions, 1)
	assert.Equal(t, "b", sessions[0].Entry.ID)
	assert.Equal(t, 480, *sessions[0].DurationMinutes)
}

func TestReconstruct_ExitWithoutEntryIgnored(t *testing.T) {
	sessions := Reconstruct([]engine.Event{
		evt("a", engine.EventExit, at(7, 0)),
		evt("b", engine.EventEntry, at(8, 0)),
		evt("c", engine.EventExit, at(12, 0)),
	})

	require.Len(t, sessions, 1)
	assert.Equal(t, "b", sessions[0].Entry.ID)
	assert.Equal(t, 240, *sessions[0].DurationMinutes)
}

func TestReconstruct_MultipleSessionsOneDay(t *testing.T) {
	sessions := Reconstruct([]engine.Event{
		evt("a", engine.EventEntry, at(8, 0)),
		evt("b", engine.EventExit, at(12, 0)),
		evt("c", engine.EventEntry, at(13, 0)),
		evt("d", engine.EventExit, at(17, 0)),
	})

	require.Len(t, sessions, 2)
	assert.Equal(t, 240+240, TotalWorkedMinutes(sessions))
}

func TestReconstruct_TieBreakOnID(t *testing.T) {
	// Same scanned_at should not happen past the admission gate, but the
	// fold must stay deterministic: id ascending is the secondary key.
	same := at(8, 0)
	sessions := Reconstruct([]engine.Event{
		evt("b", engine.EventExit, same),
		evt("a", engine.EventEntry, same),
	})

	require.Len(t, sessions, 1)
	assert.Equal(t, "a", sessions[0].Entry.ID)
	assert.Equal(t, "b", sessions[0].Exit.ID)
	assert.Equal(t, 0, *sessions[0].DurationMinutes)
}

func TestReconstruct_DateBoundaryResetsState(t *testing.T) {
	// An entry on day one with no exit stays an open session for that day;
	// day two starts fresh.
	day1 := time.Date(2026, time.March, 2, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)

	sessions := Reconstruct([]engine.Event{
		evt("a", engine.EventEntry, day1),
		evt("b", engine.EventEntry, day2),
		evt("c", engine.EventExit, day2.Add(8*time.Hour)),
	})

	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Open())
	assert.Equal(t, "2026-03-02", sessions[0].Date)
	assert.Equal(t, 480, *sessions[1].DurationMinutes)
}

func TestReconstruct_IdempotentOnSortedInput(t *testing.T) {
	events := []engine.Event{
		evt("a", engine.EventEntry, at(8, 0)),
		evt("b", engine.EventExit, at(12, 0)),
		evt("c", engine.EventEntry, at(13, 0)),
	}

	first := Reconstruct(events)
	second := Reconstruct(events)
	assert.Equal(t, first, second)
	assert.Equal(t, TotalWorkedMinutes(first), TotalWorkedMinutes(second))
}
