/*
errors.go - Error types for the time-accounting engine

PURPOSE:
  All engine errors in one place. Every error is returned, never swallowed;
  callers decide whether to show a message, drop a punch, or retry a store
  write. Nothing in this package retries.

ERROR CATEGORIES:
  1. Input errors - MalformedTimeError (punch text cannot be parsed)
  2. Sequence errors - OutOfSequenceError (punch before its predecessor)
  3. Data errors - InvalidIntervalError (a sub-period ends before it starts)
  4. Store errors - ErrRecordNotFound, ErrUserNotFound

USAGE:
  rec, err := clock.Register(rec, clock.PunchLunchOut, t)
  var seqErr *clock.OutOfSequenceError
  if errors.As(err, &seqErr) {
      // "entry required before lunch exit"
  }

SEE ALSO:
  - sequence.go, duration.go: produce these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package clock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedTime is the sentinel behind MalformedTimeError.
	ErrMalformedTime = errors.New("malformed time")

	// ErrOutOfSequence is the sentinel behind OutOfSequenceError.
	ErrOutOfSequence = errors.New("punch out of sequence")

	// ErrInvalidInterval is the sentinel behind InvalidIntervalError.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrUnresolved is returned by ComputeTotal when the record does not yet
	// carry enough punches to produce a total. It is a state, not a failure.
	ErrUnresolved = errors.New("record unresolved")

	// ErrInvalidSchedule is returned when a schedule update would produce an
	// unusable schedule.
	ErrInvalidSchedule = errors.New("invalid work schedule")

	// ErrInvalidPunchType is returned for a punch type outside the four known ones.
	ErrInvalidPunchType = errors.New("invalid punch type")

	// ErrRecordNotFound is returned by stores when no record matches.
	ErrRecordNotFound = errors.New("record not found")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedTimeError reports punch text that is not HH:MM or HH:MM:SS, or is
// out of range.
type MalformedTimeError struct {
	Input  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: %s", e.Input, e.Reason)
}

func (e *MalformedTimeError) Unwrap() error { return ErrMalformedTime }

// OutOfSequenceError reports a punch submitted before its predecessor.
// Required is empty when the day is already closed by an exit.
type OutOfSequenceError struct {
	Punch    PunchType
	Required PunchType
	State    State
}

func (e *OutOfSequenceError) Error() string {
	if e.Required == "" {
		return fmt.Sprintf("%s not allowed: day already closed by exit", e.Punch.Label())
	}
	return fmt.Sprintf("%s required before %s", e.Required.Label(), e.Punch.Label())
}

func (e *OutOfSequenceError) Unwrap() error { return ErrOutOfSequence }

// InvalidIntervalError reports a sub-period whose end precedes its start.
type InvalidIntervalError struct {
	From  PunchType
	To    PunchType
	Start TimeOfDay
	End   TimeOfDay
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: %s at %s is before %s at %s",
		e.To.Label(), e.End, e.From.Label(), e.Start)
}

func (e *InvalidIntervalError) Unwrap() error { return ErrInvalidInterval }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedTime) ||
		errors.Is(err, ErrOutOfSequence) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrInvalidPunchType)
}

// IsNotFound returns true if the error indicates a missing record or user.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
