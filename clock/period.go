package clock

import "time"

// =============================================================================
// PERIOD - Inclusive date range used by every aggregate
// =============================================================================

// Period is the closed date range [Start, End].
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period, ascending.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD CALCULATORS
// =============================================================================

// WeekOf returns the Sunday-start week containing d.
func WeekOf(d Date) Period {
	start := d.AddDays(-int(d.Weekday()))
	return Period{Start: start, End: start.AddDays(6)}
}

// MonthOf returns the calendar month.
func MonthOf(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	return Period{Start: start, End: start.AddMonths(1).AddDays(-1)}
}

// YearOf returns Jan 1 .. Dec 31 of year.
func YearOf(year int) Period {
	return Period{Start: NewDate(year, time.January, 1), End: NewDate(year, time.December, 31)}
}
