/*
aggregate.go - Week, month and distribution roll-ups

PURPOSE:
  Rolls many resolved day records up into the numbers a dashboard shows.
  Records must already be resolved (see ResolveAll); this file only reads
  their derived values.

EXCLUSION RULE:
  Unresolved records are skipped entirely. They do not add zero to a sum
  and they do not count in any denominator. Three records in a week where
  one lacks an exit give a total of two days and an average over two.

PERIOD BASELINE:
  ExpectedMinutesForPeriod counts only days the user actually has a
  resolved record for, not calendar days. ScheduledMinutes is the calendar
  target (work days x expected) used for goals.

SEE ALSO:
  - balance.go: Resolve / ResolveAll
  - period.go: WeekOf, MonthOf
*/
package clock

import (
	"sort"
	"time"
)

// Aggregate is a transient roll-up of one period.
type Aggregate struct {
	Key     string
	Period  Period
	Total   Duration
	Average Duration
	Days    int
}

// Balance returns Total minus the expected minutes of the counted days.
func (a Aggregate) Balance(schedule WorkSchedule) Duration {
	return a.Total - Duration(a.Days)*schedule.ExpectedDaily
}

// Distribution splits worked time for a pie or bar chart.
type Distribution struct {
	Regular Duration // worked up to the daily expected time
	Extra   Duration // worked beyond it
	Break   Duration // lunchReturn - lunchOut
}

// DayPoint is one bar of a daily chart.
type DayPoint struct {
	Date     Date
	Total    Duration
	Balance  Duration
	Resolved bool
}

// =============================================================================
// PERIOD TOTALS
// =============================================================================

// Summarize aggregates the resolved records inside a period.
func Summarize(records []DayRecord, period Period, key string) Aggregate {
	agg := Aggregate{Key: key, Period: period}
	for _, r := range records {
		total, ok := r.Total()
		if !ok || !period.Contains(r.Date) {
			continue
		}
		agg.Total += total
		agg.Days++
	}
	agg.Average = Average(agg.Total, agg.Days)
	return agg
}

// WeekTotal aggregates the Sunday-start week containing ref. The key is the
// week's first day.
func WeekTotal(records []DayRecord, ref Date) Aggregate {
	week := WeekOf(ref)
	return Summarize(records, week, week.Start.String())
}

// MonthTotal aggregates one calendar month. The key is "YYYY-MM".
func MonthTotal(records []DayRecord, year int, month time.Month) Aggregate {
	key := MonthKey{Year: year, Month: month}
	return Summarize(records, key.Period(), key.String())
}

// MonthAverage is the average of the resolved days of the month, 0 if none.
func MonthAverage(records []DayRecord, year int, month time.Month) Duration {
	return MonthTotal(records, year, month).Average
}

// Average divides total by days rounding half up, 0 for no days. Totals are
// never negative.
func Average(total Duration, days int) Duration {
	if days == 0 {
		return 0
	}
	return (total + Duration(days)/2) / Duration(days)
}

// =============================================================================
// BALANCES
// =============================================================================

// ResolvedDays counts the records with a known total.
func ResolvedDays(records []DayRecord) int {
	n := 0
	for _, r := range records {
		if r.Resolved() {
			n++
		}
	}
	return n
}

// ExpectedMinutesForPeriod is resolvedDays x schedule.ExpectedDaily.
func ExpectedMinutesForPeriod(records []DayRecord, schedule WorkSchedule) Duration {
	return Duration(ResolvedDays(records)) * schedule.ExpectedDaily
}

// WorkedMinutes sums the totals of the resolved records.
func WorkedMinutes(records []DayRecord) Duration {
	var sum Duration
	for _, r := range records {
		if total, ok := r.Total(); ok {
			sum += total
		}
	}
	return sum
}

// PeriodBalance is the accumulated banco de horas of the given records:
// worked minus expected over resolved days.
func PeriodBalance(records []DayRecord, schedule WorkSchedule) Duration {
	return WorkedMinutes(records) - ExpectedMinutesForPeriod(records, schedule)
}

// ScheduledMinutes is the calendar target of a period: the number of the
// schedule's work days inside it times the expected daily minutes.
func ScheduledMinutes(period Period, schedule WorkSchedule) Duration {
	var n Duration
	for _, d := range period.Days() {
		if schedule.WorkDays.Contains(d.Weekday()) {
			n++
		}
	}
	return n * schedule.ExpectedDaily
}

// =============================================================================
// DISTRIBUTION AND SERIES
// =============================================================================

// TimeDistribution partitions the worked minutes of each resolved day into
// regular time (up to the expected daily minutes) and extra time (the
// surplus), and sums the lunch breaks of resolved days.
func TimeDistribution(records []DayRecord, schedule WorkSchedule) Distribution {
	var dist Distribution
	for _, r := range records {
		total, ok := r.Total()
		if !ok {
			continue
		}
		if total > schedule.ExpectedDaily {
			dist.Regular += schedule.ExpectedDaily
			dist.Extra += total - schedule.ExpectedDaily
		} else {
			dist.Regular += total
		}
		if b, ok := BreakTime(r); ok {
			dist.Break += b
		}
	}
	return dist
}

// MonthlySeries groups resolved records by calendar month, ascending.
func MonthlySeries(records []DayRecord) []Aggregate {
	groups := make(map[MonthKey][]DayRecord)
	for _, r := range records {
		if !r.Resolved() {
			continue
		}
		k := r.Date.MonthKey()
		groups[k] = append(groups[k], r)
	}

	keys := make([]MonthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	series := make([]Aggregate, 0, len(keys))
	for _, k := range keys {
		series = append(series, Summarize(groups[k], k.Period(), k.String()))
	}
	return series
}

// DailySeries returns one point per day of the period. Days without a
// resolved record are present with Resolved=false and zero values.
func DailySeries(records []DayRecord, period Period, schedule WorkSchedule) []DayPoint {
	byDate := indexByDate(records)
	days := period.Days()
	series := make([]DayPoint, 0, len(days))
	for _, d := range days {
		p := DayPoint{Date: d}
		if r, ok := byDate[d.String()]; ok {
			if total, resolved := r.Total(); resolved {
				p.Total = total
				p.Balance = ComputeBalance(total, schedule)
				p.Resolved = true
			}
		}
		series = append(series, p)
	}
	return series
}

// SortByDate returns a copy of records ordered by date ascending.
func SortByDate(records []DayRecord) []DayRecord {
	out := make([]DayRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FindByDate returns the record for a date.
func FindByDate(records []DayRecord, d Date) (DayRecord, bool) {
	for _, r := range records {
		if r.Date.Equal(d) {
			return r, true
		}
	}
	return DayRecord{}, false
}

func indexByDate(records []DayRecord) map[string]DayRecord {
	m := make(map[string]DayRecord, len(records))
	for _, r := range records {
		m[r.Date.String()] = r
	}
	return m
}
