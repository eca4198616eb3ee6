package timesheet

import (
	"github.com/horacerta/timeclock/clock"
)

// =============================================================================
// DASHBOARD - Home screen read model
// =============================================================================

// Dashboard is everything the home screen shows for one user on one day.
type Dashboard struct {
	Today    clock.Date
	Schedule clock.WorkSchedule

	// TodayRecord is zero-valued when nothing was punched today.
	TodayRecord clock.DayRecord
	TodayTotal  clock.Duration
	NextPunch   clock.PunchType
	DayClosed   bool

	Week       clock.Aggregate
	WeekGoal   clock.Duration
	WeekSeries []clock.DayPoint

	Month clock.Aggregate

	// Balance is the accumulated banco de horas over every resolved day.
	Balance clock.Duration

	Distribution clock.Distribution
	Monthly      []clock.Aggregate
	Presence     clock.CalendarYear
}

// BuildDashboard derives the dashboard from a resolved snapshot.
func BuildDashboard(snap Snapshot, today clock.Date) Dashboard {
	records := snap.Records
	schedule := snap.Schedule
	week := clock.WeekOf(today)

	d := Dashboard{
		Today:        today,
		Schedule:     schedule,
		Week:         clock.WeekTotal(records, today),
		WeekGoal:     clock.ScheduledMinutes(week, schedule),
		WeekSeries:   clock.DailySeries(records, week, schedule),
		Month:        clock.MonthTotal(records, today.Year(), today.Month()),
		Balance:      clock.PeriodBalance(records, schedule),
		Distribution: clock.TimeDistribution(records, schedule),
		Monthly:      clock.MonthlySeries(records),
		Presence:     clock.YearPresence(records, today.Year()),
	}

	rec, ok := clock.FindByDate(records, today)
	if !ok {
		rec = clock.DayRecord{UserID: snap.UserID, Date: today}
	}
	d.TodayRecord = rec
	if total, resolved := rec.Total(); resolved {
		d.TodayTotal = total
	}
	next, open := clock.NextPunch(rec)
	d.NextPunch = next
	d.DayClosed = !open
	return d
}

// =============================================================================
// MONTHLY REPORT - Analytics read model
// =============================================================================

// MonthlyReport summarizes one calendar month.
type MonthlyReport struct {
	Month      clock.MonthKey
	Total      clock.Duration
	Average    clock.Duration
	WorkedDays int

	// Balance is Total minus the expected minutes of the worked days.
	Balance clock.Duration

	// Scheduled is the calendar target of the month.
	Scheduled clock.Duration

	// Days holds every record of the month, resolved or not, by date.
	Days []clock.DayRecord
}

// BuildMonthlyReport derives the report of one month from a resolved snapshot.
func BuildMonthlyReport(snap Snapshot, month clock.MonthKey) MonthlyReport {
	period := month.Period()
	agg := clock.Summarize(snap.Records, period, month.String())

	var days []clock.DayRecord
	for _, r := range clock.SortByDate(snap.Records) {
		if period.Contains(r.Date) {
			days = append(days, r)
		}
	}

	return MonthlyReport{
		Month:      month,
		Total:      agg.Total,
		Average:    agg.Average,
		WorkedDays: agg.Days,
		Balance:    agg.Balance(snap.Schedule),
		Scheduled:  clock.ScheduledMinutes(period, snap.Schedule),
		Days:       days,
	}
}
