/*
service.go - Punch registration and read models over the clock engine

PURPOSE:
  Orchestrates the pure clock engine with the injected stores. Every read
  takes a fresh snapshot of the user's records, resolves it against the
  user's current schedule, and hands the resolved records to the engine's
  aggregate functions. Nothing derived is cached between calls.

WRITE FLOW:
  1. Load the (user, date) record, or start an empty one
  2. clock.Register validates sequence and ordering
  3. Store upsert merges the punch into the stored row
  4. The returned record is resolved against the schedule

READ MODELS:
  Dashboard:     today, week vs goal, accumulated balance, charts
  MonthlyReport: month total, daily average, worked days, per-day rows
  Presence:      year heatmap
  PendingDays:   past days left without a total

CONCURRENT PUNCHES:
  Two punches for the same day racing each other are both validated
  against the record as it was read. The store merge keeps both punches;
  ordering mistakes then surface as InvalidIntervalError on the next read.

SEE ALSO:
  - dashboard.go: read model construction
  - clock/store.go: injected store contracts
*/
package timesheet

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/horacerta/timeclock/clock"
)

// Service runs the time-accounting use cases for one deployment.
type Service struct {
	Records   clock.RecordStore
	Schedules clock.ScheduleStore
	Logger    *zap.Logger

	// Now is the wall clock used for "punch now" and for today's date.
	Now func() time.Time
}

func NewService(records clock.RecordStore, schedules clock.ScheduleStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Records:   records,
		Schedules: schedules,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Today returns the calendar date of Now.
func (s *Service) Today() clock.Date {
	return clock.DateOf(s.Now())
}

// =============================================================================
// PUNCHES
// =============================================================================

// Punch registers a punch at the wall-clock minute of at, on at's date.
func (s *Service) Punch(ctx context.Context, userID clock.UserID, p clock.PunchType, at time.Time) (clock.DayRecord, error) {
	return s.register(ctx, userID, clock.DateOf(at), p, clock.NewTimeOfDay(at.Hour(), at.Minute()))
}

// RegisterPunch registers a punch given as "HH:MM" or "HH:MM:SS" text.
func (s *Service) RegisterPunch(ctx context.Context, userID clock.UserID, date clock.Date, p clock.PunchType, text string) (clock.DayRecord, error) {
	at, err := clock.ParseTimeOfDay(text)
	if err != nil {
		return clock.DayRecord{}, err
	}
	return s.register(ctx, userID, date, p, at)
}

func (s *Service) register(ctx context.Context, userID clock.UserID, date clock.Date, p clock.PunchType, at clock.TimeOfDay) (clock.DayRecord, error) {
	current, err := s.Records.Get(ctx, userID, date)
	if errors.Is(err, clock.ErrRecordNotFound) {
		current = clock.DayRecord{UserID: userID, Date: date}
	} else if err != nil {
		return clock.DayRecord{}, err
	}

	next, err := clock.Register(current, p, at)
	if err != nil {
		s.Logger.Info("punch rejected",
			zap.String("user_id", string(userID)),
			zap.String("date", date.String()),
			zap.String("punch", string(p)),
			zap.String("time", at.String()),
			zap.Error(err))
		return clock.DayRecord{}, err
	}

	stored, err := s.Records.Upsert(ctx, next)
	if err != nil {
		return clock.DayRecord{}, err
	}

	s.Logger.Debug("punch registered",
		zap.String("user_id", string(userID)),
		zap.String("date", date.String()),
		zap.String("punch", string(p)),
		zap.String("time", at.String()))
	return s.resolve(ctx, stored)
}

// DayEdit carries the four punches of a full-day edit as text. Empty
// strings clear the punch.
type DayEdit struct {
	Entry       string
	LunchOut    string
	LunchReturn string
	Exit        string
}

// EditDay replaces all punches of a day. Every punch needs the punch it
// depends on, except that exit may follow an unfinished lunch. A day edited
// down to no punches is deleted.
func (s *Service) EditDay(ctx context.Context, userID clock.UserID, date clock.Date, edit DayEdit) (clock.DayRecord, error) {
	rec := clock.DayRecord{UserID: userID, Date: date}
	for _, f := range []struct {
		p    clock.PunchType
		text string
	}{
		{clock.PunchEntry, edit.Entry},
		{clock.PunchLunchOut, edit.LunchOut},
		{clock.PunchLunchReturn, edit.LunchReturn},
		{clock.PunchExit, edit.Exit},
	} {
		pt, err := clock.ParsePunchTime(f.text)
		if err != nil {
			return clock.DayRecord{}, err
		}
		rec = rec.WithPunch(f.p, pt)
	}
	if err := clock.CheckPredecessors(rec); err != nil {
		return clock.DayRecord{}, err
	}
	if err := clock.CheckOrder(rec); err != nil {
		return clock.DayRecord{}, err
	}

	if !rec.HasAnyPunch() {
		existing, err := s.Records.Get(ctx, userID, date)
		if err != nil {
			return clock.DayRecord{}, err
		}
		if err := s.Records.Delete(ctx, userID, existing.ID); err != nil {
			return clock.DayRecord{}, err
		}
		return rec, nil
	}

	stored, err := s.Records.Replace(ctx, rec)
	if err != nil {
		return clock.DayRecord{}, err
	}
	return s.resolve(ctx, stored)
}

// DeleteRecord removes one day record of the user.
func (s *Service) DeleteRecord(ctx context.Context, userID clock.UserID, id clock.RecordID) error {
	return s.Records.Delete(ctx, userID, id)
}

// ClearRecords removes every record of the user.
func (s *Service) ClearRecords(ctx context.Context, userID clock.UserID) error {
	if err := s.Records.DeleteAll(ctx, userID); err != nil {
		return err
	}
	s.Logger.Info("records cleared", zap.String("user_id", string(userID)))
	return nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Snapshot is a user's resolved record set and the schedule it was
// resolved against.
type Snapshot struct {
	UserID   clock.UserID
	Schedule clock.WorkSchedule
	Records  []clock.DayRecord
}

// Snapshot loads and resolves the user's records. Days with contradictory
// punches stay unresolved and are logged.
func (s *Service) Snapshot(ctx context.Context, userID clock.UserID) (Snapshot, error) {
	schedule, err := s.Schedules.GetSchedule(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	records, err := s.Records.ListByUser(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.resolveSnapshot(userID, schedule, records), nil
}

func (s *Service) resolveSnapshot(userID clock.UserID, schedule clock.WorkSchedule, records []clock.DayRecord) Snapshot {
	resolved, err := clock.ResolveAll(records, schedule)
	if err != nil {
		s.Logger.Warn("records with invalid intervals left unresolved",
			zap.String("user_id", string(userID)), zap.Error(err))
	}
	return Snapshot{UserID: userID, Schedule: schedule, Records: resolved}
}

func (s *Service) resolve(ctx context.Context, rec clock.DayRecord) (clock.DayRecord, error) {
	schedule, err := s.Schedules.GetSchedule(ctx, rec.UserID)
	if err != nil {
		return clock.DayRecord{}, err
	}
	return clock.Resolve(rec, schedule)
}

// =============================================================================
// SCHEDULE
// =============================================================================

func (s *Service) Schedule(ctx context.Context, userID clock.UserID) (clock.WorkSchedule, error) {
	return s.Schedules.GetSchedule(ctx, userID)
}

func (s *Service) UpdateSchedule(ctx context.Context, userID clock.UserID, patch clock.SchedulePatch) (clock.WorkSchedule, error) {
	schedule, err := s.Schedules.UpdateSchedule(ctx, userID, patch)
	if err != nil {
		return clock.WorkSchedule{}, err
	}
	s.Logger.Info("schedule updated",
		zap.String("user_id", string(userID)),
		zap.String("expected_daily", clock.FormatClock(schedule.ExpectedDaily)))
	return schedule, nil
}

// =============================================================================
// READ MODELS
// =============================================================================

// Dashboard builds the dashboard as of the given date.
func (s *Service) Dashboard(ctx context.Context, userID clock.UserID, today clock.Date) (Dashboard, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(snap, today), nil
}

// MonthlyReport builds the analytics view of one month.
func (s *Service) MonthlyReport(ctx context.Context, userID clock.UserID, month clock.MonthKey) (MonthlyReport, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return MonthlyReport{}, err
	}
	return BuildMonthlyReport(snap, month), nil
}

// Presence returns the year heatmap.
func (s *Service) Presence(ctx context.Context, userID clock.UserID, year int) (clock.CalendarYear, error) {
	records, err := s.Records.ListByUser(ctx, userID)
	if err != nil {
		return clock.CalendarYear{}, err
	}
	return clock.YearPresence(records, year), nil
}

// PendingDays lists the days before the given date that have punches but
// no total, oldest first.
func (s *Service) PendingDays(ctx context.Context, userID clock.UserID, before clock.Date) ([]clock.DayRecord, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	var pending []clock.DayRecord
	for _, r := range snap.Records {
		if r.Date.Before(before) && r.HasAnyPunch() && !r.Resolved() {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// ExportRows formats the user's records inside period. A zero period
// exports everything.
func (s *Service) ExportRows(ctx context.Context, userID clock.UserID, period clock.Period) ([]clock.ExportRow, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	records := snap.Records
	if !period.Start.IsZero() {
		records = records[:0:0]
		for _, r := range snap.Records {
			if period.Contains(r.Date) {
				records = append(records, r)
			}
		}
	}
	return clock.BuildExportRows(records), nil
}

// Export writes the user's records inside period to sink.
func (s *Service) Export(ctx context.Context, userID clock.UserID, period clock.Period, sink clock.ExportSink) error {
	rows, err := s.ExportRows(ctx, userID, period)
	if err != nil {
		return err
	}
	return sink.Export(ctx, rows)
}

// =============================================================================
// LIVE UPDATES
// =============================================================================

// Watch rebuilds the dashboard each time the user's records change and
// hands it to fn. fn runs on a store goroutine; deliveries are coalesced.
func (s *Service) Watch(ctx context.Context, userID clock.UserID, fn func(Dashboard)) (func(), error) {
	return s.Records.Subscribe(ctx, userID, func(records []clock.DayRecord) {
		schedule, err := s.Schedules.GetSchedule(ctx, userID)
		if err != nil {
			s.Logger.Error("watch: failed to load schedule",
				zap.String("user_id", string(userID)), zap.Error(err))
			return
		}
		fn(BuildDashboard(s.resolveSnapshot(userID, schedule, records), s.Today()))
	})
}
