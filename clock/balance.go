/*
balance.go - Daily balance against the expected schedule

PURPOSE:
  Compares a day's worked minutes with the user's expected daily minutes and
  attaches both derived values to the record. This is the only place a
  DayRecord's Total and Balance are written.

SIGN CONVENTION:
  positive = overtime, negative = undertime, zero = exact.
  Formatted with a mandatory sign: "+0h 12min", "-0h 48min", "+0h 0min".

EXAMPLE:
  08:00-12:00 + 13:00-17:00 = 480 min, expected 528 (08:48)
  balance = 480 - 528 = -48  ->  "-0h 48min"

SEE ALSO:
  - duration.go: ComputeTotal
  - aggregate.go: period-level balances
*/
package clock

import (
	"errors"
)

// ComputeBalance returns total - schedule.ExpectedDaily.
func ComputeBalance(total Duration, schedule WorkSchedule) Duration {
	return total - schedule.ExpectedDaily
}

// Resolve recomputes the derived values of a record. An unresolved record
// comes back with derived values cleared and a nil error. A record with a
// negative interval comes back cleared together with the interval error.
func Resolve(r DayRecord, schedule WorkSchedule) (DayRecord, error) {
	r = r.Unresolve()

	total, err := ComputeTotal(r)
	if errors.Is(err, ErrUnresolved) {
		return r, nil
	}
	if err != nil {
		return r, err
	}

	r.derived = derived{
		total:    total,
		balance:  ComputeBalance(total, schedule),
		resolved: true,
	}
	return r, nil
}

// ResolveAll resolves every record of a snapshot. All records are returned;
// the error joins the failures of records that carry invalid intervals.
func ResolveAll(records []DayRecord, schedule WorkSchedule) ([]DayRecord, error) {
	out := make([]DayRecord, len(records))
	var errs []error
	for i, r := range records {
		resolved, err := Resolve(r, schedule)
		if err != nil {
			errs = append(errs, &RecordError{Date: r.Date, Err: err})
		}
		out[i] = resolved
	}
	return out, errors.Join(errs...)
}

// RecordError ties an engine error to the day it came from.
type RecordError struct {
	Date Date
	Err  error
}

func (e *RecordError) Error() string { return e.Date.String() + ": " + e.Err.Error() }
func (e *RecordError) Unwrap() error { return e.Err }
