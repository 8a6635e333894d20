package shiftwindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func local(y int, m time.Month, d, h, min, s int) time.Time {
	return time.Date(y, m, d, h, min, s, 0, Location)
}

func TestResolveEarlyMorningBelongsToPreviousDay(t *testing.T) {
	w := Resolve(local(2024, time.March, 2, 2, 0, 0))

	assert.Equal(t, "2024-03-01", w.Date())
	assert.True(t, w.Start.Equal(local(2024, time.March, 1, 18, 0, 0)))
	assert.True(t, w.End.Equal(local(2024, time.March, 2, 3, 0, 0)))
}

func TestResolveAtEndBoundaryStartsNewDay(t *testing.T) {
	w := Resolve(local(2024, time.March, 2, 3, 0, 0))
	assert.Equal(t, "2024-03-02", w.Date())

	prev := Resolve(local(2024, time.March, 2, 2, 59, 59))
	assert.Equal(t, "2024-03-01", prev.Date())
}

func TestResolveEveningSameDay(t *testing.T) {
	w := Resolve(local(2024, time.March, 1, 20, 30, 0))
	assert.Equal(t, "2024-03-01", w.Date())
	assert.True(t, w.Contains(local(2024, time.March, 1, 20, 30, 0)))
}

func TestResolveAcceptsAnyInputZone(t *testing.T) {
	// 19:30 UTC on 1 March is 02:30 local on 2 March.
	w := Resolve(time.Date(2024, time.March, 1, 19, 30, 0, 0, time.UTC))
	assert.Equal(t, "2024-03-01", w.Date())
}

func TestResolveIsDeterministic(t *testing.T) {
	ref := local(2024, time.December, 31, 23, 0, 0)
	a := Resolve(ref)
	b := Resolve(ref)
	assert.Equal(t, a, b)
	assert.Equal(t, "2024-12-31", a.Date())
	assert.True(t, a.End.Equal(local(2025, time.January, 1, 3, 0, 0)))
}

func TestContainsIsHalfOpen(t *testing.T) {
	w, err := ForDate("2024-03-01")
	require.NoError(t, err)

	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))
}

func TestForDateRejectsBadInput(t *testing.T) {
	_, err := ForDate("01/03/2024")
	assert.Error(t, err)
}

func TestUTCBounds(t *testing.T) {
	w, err := ForDate("2024-03-01")
	require.NoError(t, err)

	start, end := w.UTC()
	assert.Equal(t, "2024-03-01T11:00:00Z", start)
	assert.Equal(t, "2024-03-01T20:00:00Z", end)
}

func TestPreviousAndNext(t *testing.T) {
	w, err := ForDate("2024-03-01")
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", w.Previous().Date())
	assert.Equal(t, "2024-03-02", w.Next().Date())
	assert.True(t, w.Previous().End.Before(w.Start))
}
