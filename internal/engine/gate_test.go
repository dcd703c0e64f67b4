package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(t time.Time, typ EventType) *Event {
	return &Event{ID: "evt-1", PersonID: "p-1", ScannedAt: t, Type: typ}
}

func TestAdmit_NoPriorEvent_Allowed(t *testing.T) {
	err := Admit(nil, time.Now(), 30*time.Second)
	assert.NoError(t, err)
}

func TestAdmit_InsideWindow_RejectedWithRemaining(t *testing.T) {
	t0 := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	window := 30 * time.Second

	// One second before the window closes: rejected, one second remaining.
	err := Admit(eventAt(t0, EventEntry), t0.Add(window-time.Second), window)
	require.Error(t, err)

	var dup *DuplicateScanError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 1, dup.RemainingSeconds)
	assert.True(t, errors.Is(err, ErrDuplicateScan))
}

func TestAdmit_AtWindowBoundary_Allowed(t *testing.T) {
	t0 := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	window := 30 * time.Second

	assert.NoError(t, Admit(eventAt(t0, EventEntry), t0.Add(window), window))
}

func TestAdmit_PartialSecondsRoundUp(t *testing.T) {
	t0 := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	window := 30 * time.Second

	// 29.5s elapsed leaves 0.5s, reported as 1 whole second.
	err := Admit(eventAt(t0, EventEntry), t0.Add(29*time.Second+500*time.Millisecond), window)
	var dup *DuplicateScanError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 1, dup.RemainingSeconds)
}

func TestResolveType_ExplicitWins(t *testing.T) {
	last := eventAt(time.Now(), EventEntry)
	assert.Equal(t, EventEntry, ResolveType(RequestedEntry, last))
	assert.Equal(t, EventExit, ResolveType(RequestedExit, nil))
}

func TestResolveType_AutoToggles(t *testing.T) {
	// No event yet today: entry.
	assert.Equal(t, EventEntry, ResolveType(RequestedAuto, nil))

	// Last was entry: exit.
	assert.Equal(t, EventExit, ResolveType(RequestedAuto, eventAt(time.Now(), EventEntry)))

	// Last was exit: entry again.
	assert.Equal(t, EventEntry, ResolveType(RequestedAuto, eventAt(time.Now(), EventExit)))
}
