package clock_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horacerta/timeclock/clock"
)

// =============================================================================
// DURATION CALCULATOR
// =============================================================================

func TestComputeTotal_FullDay(t *testing.T) {
	total, err := clock.ComputeTotal(day("08:00", "12:00", "13:00", "17:00"))
	require.NoError(t, err)
	assert.Equal(t, clock.Duration(480), total)
	assert.Equal(t, "8h 0min", clock.FormatDuration(total))
}

func TestComputeTotal_NoLunch(t *testing.T) {
	total, err := clock.ComputeTotal(day("09:00", "", "", "15:30"))
	require.NoError(t, err)
	assert.Equal(t, clock.Duration(390), total)
}

func TestComputeTotal_Unresolved(t *testing.T) {
	tests := []struct {
		name string
		rec  clock.DayRecord
	}{
		{"empty", day("", "", "", "")},
		{"entry only", day("08:00", "", "", "")},
		{"no exit", day("08:00", "12:00", "13:00", "")},
		{"no entry", day("", "", "", "17:00")},
		{"lunch out without return", day("08:00", "12:00", "", "17:00")},
		{"lunch return without out", day("08:00", "", "13:00", "17:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clock.ComputeTotal(tt.rec)
			assert.ErrorIs(t, err, clock.ErrUnresolved)
		})
	}
}

func TestComputeTotal_NegativeIntervalSurfaced(t *testing.T) {
	// GIVEN: exit typed before lunch return (copy/paste mistake)
	rec := day("08:00", "12:00", "13:00", "12:30")

	// WHEN/THEN: an interval error, never a clamped or negative total
	_, err := clock.ComputeTotal(rec)
	var ivErr *clock.InvalidIntervalError
	require.ErrorAs(t, err, &ivErr)
	assert.Equal(t, clock.PunchLunchReturn, ivErr.From)
	assert.Equal(t, clock.PunchExit, ivErr.To)
	assert.False(t, errors.Is(err, clock.ErrUnresolved))
}

func TestComputeTotal_SecondsDoNotChangeTotal(t *testing.T) {
	withSeconds := clock.DayRecord{
		Entry:       clock.Punched(clock.MustParseTimeOfDay("08:00:00")),
		LunchOut:    clock.Punched(clock.MustParseTimeOfDay("12:00:30")),
		LunchReturn: clock.Punched(clock.MustParseTimeOfDay("13:00:59")),
		Exit:        clock.Punched(clock.MustParseTimeOfDay("17:00:01")),
	}
	a, err := clock.ComputeTotal(withSeconds)
	require.NoError(t, err)
	b, err := clock.ComputeTotal(day("08:00", "12:00", "13:00", "17:00"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBreakTime(t *testing.T) {
	b, ok := clock.BreakTime(day("08:00", "12:00", "13:15", "17:00"))
	assert.True(t, ok)
	assert.Equal(t, clock.Duration(75), b)

	_, ok = clock.BreakTime(day("08:00", "", "", "17:00"))
	assert.False(t, ok)
}

// =============================================================================
// BALANCE ENGINE
// =============================================================================

func TestComputeBalance_Undertime(t *testing.T) {
	schedule := clock.DefaultSchedule()
	require.Equal(t, clock.Duration(528), schedule.ExpectedDaily)

	balance := clock.ComputeBalance(480, schedule)
	assert.Equal(t, clock.Duration(-48), balance)
	assert.Equal(t, "-0h 48min", clock.FormatBalance(balance))
}

func TestComputeBalance_ExactAndOvertime(t *testing.T) {
	schedule := clock.DefaultSchedule()
	assert.Equal(t, "+0h 0min", clock.FormatBalance(clock.ComputeBalance(528, schedule)))
	assert.Equal(t, "+1h 2min", clock.FormatBalance(clock.ComputeBalance(590, schedule)))
}

func TestResolve_SetsDerivedValues(t *testing.T) {
	rec, err := clock.Resolve(day("08:00", "12:00", "13:00", "17:00"), clock.DefaultSchedule())
	require.NoError(t, err)

	total, ok := rec.Total()
	assert.True(t, ok)
	assert.Equal(t, clock.Duration(480), total)
	balance, ok := rec.Balance()
	assert.True(t, ok)
	assert.Equal(t, clock.Duration(-48), balance)
}

func TestResolve_UnresolvedHasNoDerivedValues(t *testing.T) {
	rec, err := clock.Resolve(day("08:00", "12:00", "", ""), clock.DefaultSchedule())
	require.NoError(t, err)
	assert.False(t, rec.Resolved())
	_, ok := rec.Balance()
	assert.False(t, ok)
}

func TestResolve_IsIdempotent(t *testing.T) {
	schedule := clock.DefaultSchedule()
	rec := day("07:55", "11:58", "13:02", "17:31")

	first, err := clock.Resolve(rec, schedule)
	require.NoError(t, err)
	second, err := clock.Resolve(rec, schedule)
	require.NoError(t, err)
	again, err := clock.Resolve(first, schedule)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
}

func TestResolveAll_JoinsIntervalErrorsAndKeepsRecords(t *testing.T) {
	records := []clock.DayRecord{
		dayOn(clock.NewDate(2024, time.March, 4), "08:00", "12:00", "13:00", "17:00"),
		dayOn(clock.NewDate(2024, time.March, 5), "08:00", "12:00", "13:00", "12:00"),
		dayOn(clock.NewDate(2024, time.March, 6), "08:00", "", "", ""),
	}

	resolved, err := clock.ResolveAll(records, clock.DefaultSchedule())
	require.Len(t, resolved, 3)
	assert.True(t, resolved[0].Resolved())
	assert.False(t, resolved[1].Resolved())
	assert.False(t, resolved[2].Resolved())

	require.Error(t, err)
	assert.ErrorIs(t, err, clock.ErrInvalidInterval)
	var recErr *clock.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "2024-03-05", recErr.Date.String())
}
