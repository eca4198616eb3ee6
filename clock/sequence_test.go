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
// TEST HELPERS
// =============================================================================

func at(text string) clock.TimeOfDay { return clock.MustParseTimeOfDay(text) }

func punch(text string) clock.PunchTime {
	if text == "" {
		return clock.PunchTime{}
	}
	return clock.Punched(at(text))
}

// day builds a record on 2024-03-04 (a Monday) from four punch texts.
func day(entry, lunchOut, lunchReturn, exit string) clock.DayRecord {
	return dayOn(clock.NewDate(2024, time.March, 4), entry, lunchOut, lunchReturn, exit)
}

func dayOn(d clock.Date, entry, lunchOut, lunchReturn, exit string) clock.DayRecord {
	return clock.DayRecord{
		UserID:      "user-1",
		Date:        d,
		Entry:       punch(entry),
		LunchOut:    punch(lunchOut),
		LunchReturn: punch(lunchReturn),
		Exit:        punch(exit),
	}
}

// =============================================================================
// SEQUENCE TESTS
// =============================================================================

func TestRegister_FullDayInOrder(t *testing.T) {
	rec := day("", "", "", "")
	assert.Equal(t, clock.StateEmpty, clock.StateOf(rec))

	steps := []struct {
		punch clock.PunchType
		at    string
		state clock.State
	}{
		{clock.PunchEntry, "08:00", clock.StateEntered},
		{clock.PunchLunchOut, "12:00", clock.StateLunchOut},
		{clock.PunchLunchReturn, "13:00", clock.StateLunchReturned},
		{clock.PunchExit, "17:00", clock.StateExited},
	}
	for _, s := range steps {
		var err error
		rec, err = clock.Register(rec, s.punch, at(s.at))
		require.NoError(t, err, "registering %s", s.punch)
		assert.Equal(t, s.state, clock.StateOf(rec))
	}

	_, ok := clock.NextPunch(rec)
	assert.False(t, ok, "closed day offers no next punch")
}

func TestRegister_LunchOutOnEmpty_OutOfSequence(t *testing.T) {
	// GIVEN: An empty day
	// WHEN: Lunch exit is punched first
	// THEN: Rejected, naming entry as the missing predecessor, record untouched

	rec := day("", "", "", "")
	got, err := clock.Register(rec, clock.PunchLunchOut, at("12:00"))

	require.Error(t, err)
	var seqErr *clock.OutOfSequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, clock.PunchEntry, seqErr.Required)
	assert.Equal(t, "entry required before lunch exit", err.Error())
	assert.ErrorIs(t, err, clock.ErrOutOfSequence)
	assert.Equal(t, rec, got)

	// Entry first, then lunch exit succeeds
	rec, err = clock.Register(rec, clock.PunchEntry, at("08:00"))
	require.NoError(t, err)
	rec, err = clock.Register(rec, clock.PunchLunchOut, at("12:00"))
	require.NoError(t, err)
	assert.Equal(t, clock.StateLunchOut, clock.StateOf(rec))
}

func TestRegister_MissingPredecessors(t *testing.T) {
	tests := []struct {
		name     string
		rec      clock.DayRecord
		punch    clock.PunchType
		required clock.PunchType
	}{
		{"lunch return on empty", day("", "", "", ""), clock.PunchLunchReturn, clock.PunchEntry},
		{"lunch return after entry", day("08:00", "", "", ""), clock.PunchLunchReturn, clock.PunchLunchOut},
		{"exit on empty", day("", "", "", ""), clock.PunchExit, clock.PunchEntry},
		{"exit during lunch", day("08:00", "12:00", "", ""), clock.PunchExit, clock.PunchLunchReturn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clock.Register(tt.rec, tt.punch, at("18:00"))
			var seqErr *clock.OutOfSequenceError
			require.ErrorAs(t, err, &seqErr)
			assert.Equal(t, tt.required, seqErr.Required)
		})
	}
}

func TestRegister_NoLunchDay_IsValidTerminalPath(t *testing.T) {
	rec, err := clock.Register(day("", "", "", ""), clock.PunchEntry, at("09:00"))
	require.NoError(t, err)
	rec, err = clock.Register(rec, clock.PunchExit, at("15:00"))
	require.NoError(t, err)
	assert.Equal(t, clock.StateExited, clock.StateOf(rec))

	// Lunch after the day is closed is rejected
	_, err = clock.Register(rec, clock.PunchLunchOut, at("12:00"))
	var seqErr *clock.OutOfSequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Empty(t, seqErr.Required)
	assert.Equal(t, clock.StateExited, seqErr.State)
}

func TestRegister_ResubmitOverwritesWithoutChangingState(t *testing.T) {
	schedule := clock.DefaultSchedule()
	rec, err := clock.Resolve(day("08:00", "12:00", "13:00", "17:00"), schedule)
	require.NoError(t, err)
	require.True(t, rec.Resolved())

	// WHEN: entry is punched again later
	edited, err := clock.Register(rec, clock.PunchEntry, at("08:30"))
	require.NoError(t, err)

	// THEN: time overwritten, state unchanged, derived values cleared
	assert.Equal(t, at("08:30"), edited.Entry.At)
	assert.Equal(t, clock.StateExited, clock.StateOf(edited))
	assert.False(t, edited.Resolved())

	edited, err = clock.Resolve(edited, schedule)
	require.NoError(t, err)
	total, _ := edited.Total()
	assert.Equal(t, clock.Duration(450), total)
}

func TestRegister_RejectsTimeBeforePredecessor(t *testing.T) {
	rec := day("08:00", "12:00", "", "")
	got, err := clock.Register(rec, clock.PunchLunchReturn, at("11:00"))

	var ivErr *clock.InvalidIntervalError
	require.ErrorAs(t, err, &ivErr)
	assert.Equal(t, clock.PunchLunchOut, ivErr.From)
	assert.Equal(t, clock.PunchLunchReturn, ivErr.To)
	assert.Equal(t, rec, got)
}

func TestRegister_InvalidPunchType(t *testing.T) {
	_, err := clock.Register(day("", "", "", ""), clock.PunchType("coffee"), at("10:00"))
	assert.ErrorIs(t, err, clock.ErrInvalidPunchType)
}

func TestNextPunch(t *testing.T) {
	next, ok := clock.NextPunch(day("", "", "", ""))
	assert.True(t, ok)
	assert.Equal(t, clock.PunchEntry, next)

	next, _ = clock.NextPunch(day("08:00", "", "", ""))
	assert.Equal(t, clock.PunchLunchOut, next)

	next, _ = clock.NextPunch(day("08:00", "12:00", "13:00", ""))
	assert.Equal(t, clock.PunchExit, next)
}

func TestRegister_DayWithoutEntry(t *testing.T) {
	// GIVEN: A day holding lunch punches but no entry
	rec := day("", "12:00", "13:00", "")

	// WHEN: Exit is punched
	_, err := clock.Register(rec, clock.PunchExit, at("17:00"))

	// THEN: Rejected, naming entry
	var seqErr *clock.OutOfSequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, clock.PunchEntry, seqErr.Required)
	assert.Equal(t, "entry required before exit", err.Error())

	// WHEN: The missing entry is punched
	rec, err = clock.Register(rec, clock.PunchEntry, at("08:00"))

	// THEN: Accepted, and exit now closes the day
	require.NoError(t, err)
	rec, err = clock.Register(rec, clock.PunchExit, at("17:00"))
	require.NoError(t, err)
	assert.Equal(t, clock.StateExited, clock.StateOf(rec))

	// An entry after the lunch punches still breaks the order
	_, err = clock.Register(day("", "12:00", "13:00", ""), clock.PunchEntry, at("12:30"))
	assert.ErrorIs(t, err, clock.ErrInvalidInterval)
}

func TestRegister_OutOfSequenceNeverRequiresItself(t *testing.T) {
	days := []clock.DayRecord{
		day("", "", "", ""),
		day("", "12:00", "", ""),
		day("", "", "13:00", ""),
		day("", "12:00", "13:00", ""),
		day("08:00", "", "13:00", ""),
		day("08:00", "12:00", "", ""),
	}
	for _, rec := range days {
		for _, p := range clock.PunchTypes {
			if rec.Punch(p).Valid {
				continue
			}
			_, err := clock.Register(rec, p, at("23:00"))
			var seqErr *clock.OutOfSequenceError
			if errors.As(err, &seqErr) {
				assert.NotEqual(t, p, seqErr.Required, "%s on %+v", p, rec)
			}
		}
	}
}

func TestCheckPredecessors(t *testing.T) {
	tests := []struct {
		name     string
		rec      clock.DayRecord
		punch    clock.PunchType
		required clock.PunchType
	}{
		{"full day", day("08:00", "12:00", "13:00", "17:00"), "", ""},
		{"no lunch", day("08:00", "", "", "17:00"), "", ""},
		{"unfinished lunch", day("08:00", "12:00", "", "17:00"), "", ""},
		{"entry only", day("08:00", "", "", ""), "", ""},
		{"lunch without entry", day("", "12:00", "13:00", ""), clock.PunchLunchOut, clock.PunchEntry},
		{"exit without entry", day("", "", "", "17:00"), clock.PunchExit, clock.PunchEntry},
		{"lunch return without lunch exit", day("08:00", "", "13:00", "17:00"), clock.PunchLunchReturn, clock.PunchLunchOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := clock.CheckPredecessors(tt.rec)
			if tt.punch == "" {
				assert.NoError(t, err)
				return
			}
			var seqErr *clock.OutOfSequenceError
			require.ErrorAs(t, err, &seqErr)
			assert.Equal(t, tt.punch, seqErr.Punch)
			assert.Equal(t, tt.required, seqErr.Required)
		})
	}
}
