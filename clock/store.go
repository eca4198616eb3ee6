/*
store.go - Contracts for the persistence collaborators

PURPOSE:
  The engine never talks to a database. Whatever orchestrates it receives a
  RecordStore and a ScheduleStore by injection and feeds the engine
  immutable snapshots.

KEY INTERFACES:
  RecordStore:   day records per user, upsert-merge, live subscription
  ScheduleStore: one schedule per user, defaults persisted on first read

SUBSCRIPTION CONTRACT:
  Subscribe delivers the full current record set once right away and again
  after every change. Deliveries are coalesced: a slow subscriber skips
  intermediate snapshots and only sees the latest one. Snapshots are
  unresolved; resolve them against the schedule before aggregating.

IMPLEMENTATIONS:
  - clock/store/memory.go: in-memory, for tests and demos
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - timesheet/service.go: the orchestrator
*/
package clock

import "context"

// RecordStore persists day records.
type RecordStore interface {
	// ListByUser returns every record of the user, ordered by date.
	ListByUser(ctx context.Context, userID UserID) ([]DayRecord, error)

	// Get returns the record of one date or ErrRecordNotFound.
	Get(ctx context.Context, userID UserID, date Date) (DayRecord, error)

	// Upsert creates the (user, date) record or merges the punches present
	// in rec into the existing one. The stored record is returned.
	Upsert(ctx context.Context, rec DayRecord) (DayRecord, error)

	// Replace overwrites all four punches of an existing (user, date) record,
	// creating it if needed. Used by full-day edits that clear punches.
	Replace(ctx context.Context, rec DayRecord) (DayRecord, error)

	// Delete removes one record or returns ErrRecordNotFound.
	Delete(ctx context.Context, userID UserID, id RecordID) error

	// DeleteAll removes every record of the user.
	DeleteAll(ctx context.Context, userID UserID) error

	// Subscribe pushes snapshots of the user's records to fn until cancel is
	// called or ctx is done.
	Subscribe(ctx context.Context, userID UserID, fn func([]DayRecord)) (cancel func(), err error)
}

// ScheduleStore persists one WorkSchedule per user.
type ScheduleStore interface {
	// GetSchedule returns the user's schedule, persisting and returning
	// DefaultSchedule on first read.
	GetSchedule(ctx context.Context, userID UserID) (WorkSchedule, error)

	// UpdateSchedule applies a partial update and returns the result.
	UpdateSchedule(ctx context.Context, userID UserID, patch SchedulePatch) (WorkSchedule, error)
}
