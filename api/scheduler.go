/*
scheduler.go - Automated open-day audit

PURPOSE:
  Periodically looks for past days that were left open: a day with punches
  but no total (no exit, or a lunch exit without its return). Such days
  count for nothing in any aggregate until someone fixes them, so they are
  reported to the log where an operator will see them.

DESIGN:
  - Runs on a cron schedule (robfig/cron), skipping a tick while the
    previous audit is still running
  - Runs once immediately on Start
  - Only days inside the lookback window are reported, today excluded
  - Each run replaces the last report, readable via LastReport

CONFIGURATION:
  - Schedule:     Cron spec (default: "@hourly")
  - LookbackDays: How far back to look; 0 means no limit (default: 31)
  - Enabled:      Whether the auditor is active (default: true)

USAGE:
  auditor := NewOpenDayAuditor(store, service, logger)
  if err := auditor.Start(); err != nil { ... }
  // ... later
  auditor.Stop()

SEE ALSO:
  - handlers.go: ListPendingDays endpoint (per-user, on demand)
  - timesheet/service.go: PendingDays
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/store/sqlite"
	"github.com/horacerta/timeclock/timesheet"
)

// OpenDay is one day found without a total.
type OpenDay struct {
	UserID  clock.UserID
	Date    clock.Date
	Missing clock.PunchType
}

// AuditReport is the outcome of one audit run.
type AuditReport struct {
	CheckedAt time.Time
	Users     int
	Open      []OpenDay
}

// OpenDayAuditor reports days left open by their users.
type OpenDayAuditor struct {
	Store        *sqlite.Store
	Service      *timesheet.Service
	Logger       *zap.Logger
	Schedule     string
	LookbackDays int
	Enabled      bool

	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	reportMu sync.Mutex
	last     AuditReport
}

// NewOpenDayAuditor creates a new auditor.
func NewOpenDayAuditor(store *sqlite.Store, service *timesheet.Service, logger *zap.Logger) *OpenDayAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenDayAuditor{
		Store:        store,
		Service:      service,
		Logger:       logger.Named("auditor"),
		Schedule:     "@hourly",
		LookbackDays: 31,
		Enabled:      true,
	}
}

// Start begins the auditor. It runs once immediately, then on every
// scheduled tick. An invalid Schedule is returned as an error.
func (a *OpenDayAuditor) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.Enabled {
		a.Logger.Info("disabled, not starting")
		return nil
	}
	if a.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{a.Logger.Sugar()}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(a.Schedule, func() { a.runOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid audit schedule %q: %w", a.Schedule, err)
	}
	a.cron = c
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runOnce(ctx)
	}()
	c.Start()

	a.Logger.Info("started", zap.String("schedule", a.Schedule), zap.Int("lookback_days", a.LookbackDays))
	return nil
}

// Stop stops the auditor and waits for a running audit to return.
func (a *OpenDayAuditor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cron == nil {
		return
	}
	a.cancel()
	<-a.cron.Stop().Done()
	a.wg.Wait()
	a.cron = nil
	a.Logger.Info("stopped")
}

func (a *OpenDayAuditor) runOnce(ctx context.Context) {
	if _, err := a.Audit(ctx); err != nil && ctx.Err() == nil {
		a.Logger.Error("audit failed", zap.Error(err))
	}
}

// Audit checks every user once and records the report. A failing user is
// logged and skipped.
func (a *OpenDayAuditor) Audit(ctx context.Context) (AuditReport, error) {
	today := a.Service.Today()
	report := AuditReport{CheckedAt: a.Service.Now()}

	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return AuditReport{}, err
	}
	report.Users = len(users)

	var since clock.Date
	if a.LookbackDays > 0 {
		since = today.AddDays(-a.LookbackDays)
	}

	for _, u := range users {
		pending, err := a.Service.PendingDays(ctx, u.ID, today)
		if err != nil {
			if ctx.Err() != nil {
				return AuditReport{}, ctx.Err()
			}
			a.Logger.Error("listing pending days", zap.String("user_id", string(u.ID)), zap.Error(err))
			continue
		}
		for _, rec := range pending {
			if !since.IsZero() && rec.Date.Before(since) {
				continue
			}
			next := missingPunch(rec)
			report.Open = append(report.Open, OpenDay{UserID: u.ID, Date: rec.Date, Missing: next})
			a.Logger.Warn("day left open",
				zap.String("user_id", string(u.ID)),
				zap.String("date", rec.Date.String()),
				zap.String("missing", string(next)))
		}
	}

	if len(report.Open) > 0 {
		a.Logger.Info("audit completed", zap.Int("users", report.Users), zap.Int("open_days", len(report.Open)))
	}

	a.reportMu.Lock()
	a.last = report
	a.reportMu.Unlock()
	return report, nil
}

// missingPunch names the punch that would let the day resolve: the next
// one in sequence, or the first gap of a day already closed.
func missingPunch(rec clock.DayRecord) clock.PunchType {
	if next, open := clock.NextPunch(rec); open {
		return next
	}
	for _, p := range clock.PunchTypes {
		if !rec.Punch(p).Valid {
			return p
		}
	}
	return ""
}

// LastReport returns the report of the most recent completed audit.
func (a *OpenDayAuditor) LastReport() AuditReport {
	a.reportMu.Lock()
	defer a.reportMu.Unlock()
	return a.last
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
