package clock

import "fmt"

// =============================================================================
// DURATION CALCULATOR - Worked minutes of one day
// =============================================================================

// ComputeTotal returns the worked minutes of a day.
//
//	both lunch punches:  (lunchOut - entry) + (exit - lunchReturn)
//	no lunch punches:    exit - entry
//
// It returns ErrUnresolved (wrapped with the reason) when entry or exit is
// missing, or when exactly one lunch punch is present: a half-recorded lunch
// is never guessed. A negative sub-period yields *InvalidIntervalError.
func ComputeTotal(r DayRecord) (Duration, error) {
	if !r.Entry.Valid {
		return 0, fmt.Errorf("%w: entry missing", ErrUnresolved)
	}
	if !r.Exit.Valid {
		return 0, fmt.Errorf("%w: exit missing", ErrUnresolved)
	}

	switch {
	case r.LunchOut.Valid && r.LunchReturn.Valid:
		morning, err := interval(r.Entry, r.LunchOut, PunchEntry, PunchLunchOut)
		if err != nil {
			return 0, err
		}
		if _, err := interval(r.LunchOut, r.LunchReturn, PunchLunchOut, PunchLunchReturn); err != nil {
			return 0, err
		}
		afternoon, err := interval(r.LunchReturn, r.Exit, PunchLunchReturn, PunchExit)
		if err != nil {
			return 0, err
		}
		return morning + afternoon, nil

	case !r.LunchOut.Valid && !r.LunchReturn.Valid:
		return interval(r.Entry, r.Exit, PunchEntry, PunchExit)

	case r.LunchOut.Valid:
		return 0, fmt.Errorf("%w: lunch return missing", ErrUnresolved)
	default:
		return 0, fmt.Errorf("%w: lunch exit missing", ErrUnresolved)
	}
}

// BreakTime returns lunchReturn - lunchOut, or false when either is missing
// or the interval is negative.
func BreakTime(r DayRecord) (Duration, bool) {
	if !r.LunchOut.Valid || !r.LunchReturn.Valid {
		return 0, false
	}
	d := r.LunchReturn.At.Sub(r.LunchOut.At)
	if d < 0 {
		return 0, false
	}
	return d, true
}

func interval(start, end PunchTime, from, to PunchType) (Duration, error) {
	d := end.At.Sub(start.At)
	if d < 0 {
		return 0, &InvalidIntervalError{From: from, To: to, Start: start.At, End: end.At}
	}
	return d, nil
}
