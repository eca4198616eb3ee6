/*
Package clock provides the time-accounting engine.

PURPOSE:
  Turns a day's raw punches into a worked duration, compares it to the
  user's expected schedule to produce a signed balance ("banco de horas"),
  and rolls many days up into weeks, months and a year-long presence map.
  Storage, sessions and rendering live elsewhere; this package only
  computes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Duration: worked or balance time, an integer count of minutes
  - TimeOfDay / PunchTime: minute-of-day values, optionally absent
  - DayRecord: the four punches of one user on one date
  - WorkSchedule: the expected daily target and work days

DESIGN PRINCIPLES:
  1. Purity: every function is a computation over its arguments
  2. Minutes everywhere: formatting to "8h 0min" happens at the edges only
  3. Derived values are owned by the engine (see Resolve in balance.go)

USAGE:
  rec := clock.DayRecord{UserID: "u-1", Date: clock.NewDate(2024, time.March, 4)}
  rec, err := clock.Register(rec, clock.PunchEntry, clock.MustParseTimeOfDay("08:00"))
  ...
  rec, err = clock.Resolve(rec, clock.DefaultSchedule())
  total, ok := rec.Total()

SEE ALSO:
  - parse.go: text <-> minutes
  - sequence.go: punch ordering rules
  - duration.go / balance.go: per-day math
  - aggregate.go / calendar.go: multi-day views
*/
package clock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DURATION - Minutes, the single unit of the engine
// =============================================================================

// Duration is a signed number of minutes.
type Duration int

const (
	Minute Duration = 1
	Hour   Duration = 60 * Minute
)

func (d Duration) Minutes() int { return int(d) }

func (d Duration) Abs() Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Hours returns the duration as exact decimal hours rounded to two places,
// for spreadsheet columns that need a number rather than "8h 48min".
func (d Duration) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(60)).Round(2)
}

func (d Duration) String() string { return FormatDuration(d) }

// =============================================================================
// TIME OF DAY - Minute since midnight
// =============================================================================

// TimeOfDay is a minute of the day in [0, 1440).
type TimeOfDay int

const minutesPerDay = 24 * 60

func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// Valid reports whether t is inside the day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < minutesPerDay }

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Sub returns t - u in minutes.
func (t TimeOfDay) Sub(u TimeOfDay) Duration { return Duration(t - u) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// PunchTime is an optional punch. The zero value is absent.
type PunchTime struct {
	At    TimeOfDay
	Valid bool
}

func Punched(t TimeOfDay) PunchTime { return PunchTime{At: t, Valid: true} }

// String renders "HH:MM", or "" when absent.
func (p PunchTime) String() string {
	if !p.Valid {
		return ""
	}
	return p.At.String()
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type RecordID string

// =============================================================================
// PUNCH TYPES
// =============================================================================

// PunchType names one of the four daily punches. Values match the persisted
// field names.
type PunchType string

const (
	PunchEntry       PunchType = "entry"
	PunchLunchOut    PunchType = "lunchOut"
	PunchLunchReturn PunchType = "lunchReturn"
	PunchExit        PunchType = "exit"
)

// PunchTypes lists the punches in their legal order.
var PunchTypes = []PunchType{PunchEntry, PunchLunchOut, PunchLunchReturn, PunchExit}

func (p PunchType) Valid() bool {
	switch p {
	case PunchEntry, PunchLunchOut, PunchLunchReturn, PunchExit:
		return true
	}
	return false
}

// Label is the human wording used in error messages.
func (p PunchType) Label() string {
	switch p {
	case PunchEntry:
		return "entry"
	case PunchLunchOut:
		return "lunch exit"
	case PunchLunchReturn:
		return "lunch return"
	case PunchExit:
		return "exit"
	}
	return string(p)
}

// =============================================================================
// DAY RECORD - One per (user, date)
// =============================================================================

// DayRecord holds the punches of one user on one calendar date.
//
// Total and Balance are derived. They are only set by Resolve and are cleared
// whenever a punch changes, so a record read from a store must be resolved
// against the user's schedule before its totals mean anything.
type DayRecord struct {
	ID     RecordID
	UserID UserID
	Date   Date

	Entry       PunchTime
	LunchOut    PunchTime
	LunchReturn PunchTime
	Exit        PunchTime

	CreatedAt time.Time
	UpdatedAt time.Time

	derived derived
}

type derived struct {
	total    Duration
	balance  Duration
	resolved bool
}

// Total returns the worked duration and whether the record is resolved.
func (r DayRecord) Total() (Duration, bool) { return r.derived.total, r.derived.resolved }

// Balance returns the signed difference against the expected schedule.
func (r DayRecord) Balance() (Duration, bool) { return r.derived.balance, r.derived.resolved }

// Resolved reports whether the derived values are known.
func (r DayRecord) Resolved() bool { return r.derived.resolved }

// Punch returns the time of the given punch type.
func (r DayRecord) Punch(p PunchType) PunchTime {
	switch p {
	case PunchEntry:
		return r.Entry
	case PunchLunchOut:
		return r.LunchOut
	case PunchLunchReturn:
		return r.LunchReturn
	case PunchExit:
		return r.Exit
	}
	return PunchTime{}
}

// WithPunch returns a copy with one punch replaced and derived values cleared.
func (r DayRecord) WithPunch(p PunchType, t PunchTime) DayRecord {
	switch p {
	case PunchEntry:
		r.Entry = t
	case PunchLunchOut:
		r.LunchOut = t
	case PunchLunchReturn:
		r.LunchReturn = t
	case PunchExit:
		r.Exit = t
	}
	r.derived = derived{}
	return r
}

// HasAnyPunch reports whether at least one punch is present.
func (r DayRecord) HasAnyPunch() bool {
	return r.Entry.Valid || r.LunchOut.Valid || r.LunchReturn.Valid || r.Exit.Valid
}

// Merge overlays the punches present in other onto r. Used by stores to
// implement upsert semantics.
func (r DayRecord) Merge(other DayRecord) DayRecord {
	for _, p := range PunchTypes {
		if t := other.Punch(p); t.Valid {
			r = r.WithPunch(p, t)
		}
	}
	return r
}

// Unresolve returns a copy with derived values cleared.
func (r DayRecord) Unresolve() DayRecord {
	r.derived = derived{}
	return r
}
