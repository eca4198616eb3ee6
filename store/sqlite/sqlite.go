/*
Package sqlite provides a SQLite-backed implementation of the clock stores.

PURPOSE:
  Implements clock.RecordStore and clock.ScheduleStore using SQLite, plus a
  small user directory for the HTTP surface. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  clock.RecordStore:   Day records, upsert-merge, live subscription
  clock.ScheduleStore: One schedule document per user

KEY TABLES:
  users:     People who punch
  records:   One row per (user, date) with the four punches as "HH:MM" text
  schedules: One JSON schedule document per user

PERSISTED FORMAT:
  Punch columns are named entry, lunchOut, lunchReturn, exit and hold
  "HH:MM" text or NULL. The total column is written for readers of the raw
  table and is never read back: totals are always recomputed. A punch text
  that no longer parses is logged and read as absent.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writes publish the user's fresh
  record set to subscribers while still holding the write lock, so every
  subscriber sees snapshots in commit order.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/horacerta.db", sqlite.WithLogger(logger))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - clock/store.go: Interface definitions
  - clock/store/memory.go: In-memory implementation for testing
  - clock/store/feed.go: Subscription fan-out
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/clock/store"
)

// ErrEmailTaken is returned when a user is saved with an email that another
// user already has.
var ErrEmailTaken = errors.New("email already in use")

// Store implements the clock storage interfaces using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	feed   *store.Feed
	logger *zap.Logger
	now    func() time.Time
}

var (
	_ clock.RecordStore   = (*Store)(nil)
	_ clock.ScheduleStore = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for data warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		feed:   store.NewFeed(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close cancels subscriptions and closes the database connection.
func (s *Store) Close() error {
	s.feed.Close()
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	-- One row per (user, date); punches are "HH:MM" or NULL
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		entry TEXT,
		lunchOut TEXT,
		lunchReturn TEXT,
		exit TEXT,
		total TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_records_user_date
		ON records(user_id, date);

	CREATE TABLE IF NOT EXISTS schedules (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		doc_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

// User is a person whose punches are recorded.
type User struct {
	ID        clock.UserID
	Name      string
	Email     string
	CreatedAt time.Time
}

// SaveUser creates or updates a user. An empty ID gets a new UUID.
func (s *Store) SaveUser(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = clock.UserID(uuid.NewString())
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC().Truncate(time.Second)
	}

	query := `
		INSERT INTO users (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`
	_, err := s.db.ExecContext(ctx, query, string(u.ID), u.Name, nullString(u.Email), u.CreatedAt.Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, u.Email)
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser retrieves a user by ID or returns clock.ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, id clock.UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u User
	var email sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM users WHERE id = ?", string(id),
	).Scan(&u.ID, &u.Name, &email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: %s", clock.ErrUserNotFound, id)
	}
	if err != nil {
		return User{}, err
	}
	u.Email = email.String
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, created_at FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &email, &createdAt); err != nil {
			return nil, err
		}
		u.Email = email.String
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user with their records and schedule.
func (s *Store) DeleteUser(ctx context.Context, id clock.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", clock.ErrUserNotFound, id)
	}
	s.feed.Publish(id, nil)
	return nil
}

// =============================================================================
// RECORD STORE (clock.RecordStore interface)
// =============================================================================

const recordColumns = "id, user_id, date, entry, lunchOut, lunchReturn, exit, created_at, updated_at"

// ListByUser returns every record of the user, ordered by date.
func (s *Store) ListByUser(ctx context.Context, userID clock.UserID) ([]clock.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(ctx, userID)
}

func (s *Store) listLocked(ctx context.Context, userID clock.UserID) ([]clock.DayRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE user_id = ? ORDER BY date",
		string(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []clock.DayRecord{}
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get returns the record of one date or clock.ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, userID clock.UserID, d clock.Date) (clock.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(ctx, userID, d)
}

func (s *Store) getLocked(ctx context.Context, userID clock.UserID, d clock.Date) (clock.DayRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE user_id = ? AND date = ?",
		string(userID), d.String(),
	)
	r, err := s.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return clock.DayRecord{}, fmt.Errorf("%w: %s on %s", clock.ErrRecordNotFound, userID, d)
	}
	return r, err
}

// Upsert creates the record or merges the punches present in rec.
func (s *Store) Upsert(ctx context.Context, rec clock.DayRecord) (clock.DayRecord, error) {
	return s.write(ctx, rec, func(existing clock.DayRecord) clock.DayRecord {
		return existing.Merge(rec)
	})
}

// Replace overwrites all four punches, creating the record if needed.
func (s *Store) Replace(ctx context.Context, rec clock.DayRecord) (clock.DayRecord, error) {
	return s.write(ctx, rec, func(existing clock.DayRecord) clock.DayRecord {
		existing.Entry = rec.Entry
		existing.LunchOut = rec.LunchOut
		existing.LunchReturn = rec.LunchReturn
		existing.Exit = rec.Exit
		return existing
	})
}

func (s *Store) write(ctx context.Context, rec clock.DayRecord, update func(clock.DayRecord) clock.DayRecord) (clock.DayRecord, error) {
	if rec.UserID == "" || rec.Date.IsZero() {
		return clock.DayRecord{}, errors.New("record requires user and date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Second)
	existing, err := s.getLocked(ctx, rec.UserID, rec.Date)
	switch {
	case errors.Is(err, clock.ErrRecordNotFound):
		existing = clock.DayRecord{ID: rec.ID, UserID: rec.UserID, Date: rec.Date, CreatedAt: now}
		if existing.ID == "" {
			existing.ID = clock.RecordID(uuid.NewString())
		}
	case err != nil:
		return clock.DayRecord{}, err
	}

	stored := update(existing).Unresolve()
	stored.UpdatedAt = now

	var total sql.NullString
	if d, err := clock.ComputeTotal(stored); err == nil {
		total = nullString(clock.FormatClock(d))
	}

	query := `
		INSERT INTO records (id, user_id, date, entry, lunchOut, lunchReturn, exit, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			entry = excluded.entry,
			lunchOut = excluded.lunchOut,
			lunchReturn = excluded.lunchReturn,
			exit = excluded.exit,
			total = excluded.total,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		string(stored.ID), string(stored.UserID), stored.Date.String(),
		nullString(stored.Entry.String()),
		nullString(stored.LunchOut.String()),
		nullString(stored.LunchReturn.String()),
		nullString(stored.Exit.String()),
		total,
		stored.CreatedAt.Format(time.RFC3339),
		stored.UpdatedAt.Format(time.RFC3339),
	)
	if isForeignKeyError(err) {
		return clock.DayRecord{}, fmt.Errorf("%w: %s", clock.ErrUserNotFound, rec.UserID)
	}
	if err != nil {
		return clock.DayRecord{}, fmt.Errorf("save record: %w", err)
	}

	s.publishLocked(ctx, rec.UserID)
	return stored, nil
}

// Delete removes one record of the user.
func (s *Store) Delete(ctx context.Context, userID clock.UserID, id clock.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ? AND user_id = ?", string(id), string(userID))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", clock.ErrRecordNotFound, id)
	}
	s.publishLocked(ctx, userID)
	return nil
}

// DeleteAll removes every record of the user.
func (s *Store) DeleteAll(ctx context.Context, userID clock.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE user_id = ?", string(userID)); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	s.feed.Publish(userID, nil)
	return nil
}

// Subscribe pushes the user's record set now and after every change.
func (s *Store) Subscribe(ctx context.Context, userID clock.UserID, fn func([]clock.DayRecord)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	initial, err := s.listLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.feed.Subscribe(ctx, userID, initial, fn), nil
}

func (s *Store) publishLocked(ctx context.Context, userID clock.UserID) {
	if s.feed.Subscribers(userID) == 0 {
		return
	}
	records, err := s.listLocked(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load snapshot for subscribers",
			zap.String("user_id", string(userID)), zap.Error(err))
		return
	}
	s.feed.Publish(userID, records)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecord(row rowScanner) (clock.DayRecord, error) {
	var (
		r                                 clock.DayRecord
		id, userID, date                  string
		entry, lunchOut, lunchReturn, ext sql.NullString
		createdAt, updatedAt              string
	)
	if err := row.Scan(&id, &userID, &date, &entry, &lunchOut, &lunchReturn, &ext, &createdAt, &updatedAt); err != nil {
		return clock.DayRecord{}, err
	}

	d, err := clock.ParseDate(date)
	if err != nil {
		return clock.DayRecord{}, fmt.Errorf("record %s: %w", id, err)
	}
	r.ID = clock.RecordID(id)
	r.UserID = clock.UserID(userID)
	r.Date = d
	r.Entry = s.punchFromColumn(id, clock.PunchEntry, entry)
	r.LunchOut = s.punchFromColumn(id, clock.PunchLunchOut, lunchOut)
	r.LunchReturn = s.punchFromColumn(id, clock.PunchLunchReturn, lunchReturn)
	r.Exit = s.punchFromColumn(id, clock.PunchExit, ext)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return r, nil
}

// punchFromColumn reads stored punch text. Text that no longer parses is
// reported and treated as absent so one bad cell can't hide a whole history.
func (s *Store) punchFromColumn(recordID string, p clock.PunchType, v sql.NullString) clock.PunchTime {
	if !v.Valid {
		return clock.PunchTime{}
	}
	pt, err := clock.ParsePunchTime(v.String)
	if err != nil {
		s.logger.Warn("ignoring unparseable stored punch",
			zap.String("record_id", recordID),
			zap.String("punch", string(p)),
			zap.String("value", v.String),
			zap.Error(err))
		return clock.PunchTime{}
	}
	return pt
}

// =============================================================================
// SCHEDULE STORE (clock.ScheduleStore interface)
// =============================================================================

// GetSchedule returns the user's schedule, persisting the default on first read.
func (s *Store) GetSchedule(ctx context.Context, userID clock.UserID) (clock.WorkSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(ctx, userID)
}

func (s *Store) scheduleLocked(ctx context.Context, userID clock.UserID) (clock.WorkSchedule, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc_json FROM schedules WHERE user_id = ?", string(userID),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		schedule := clock.DefaultSchedule()
		if err := s.saveScheduleLocked(ctx, userID, schedule); err != nil {
			return clock.WorkSchedule{}, err
		}
		return schedule, nil
	}
	if err != nil {
		return clock.WorkSchedule{}, fmt.Errorf("load schedule: %w", err)
	}

	var stored clock.ScheduleDoc
	if err := json.Unmarshal([]byte(doc), &stored); err != nil {
		return clock.WorkSchedule{}, fmt.Errorf("decode schedule of %s: %w", userID, err)
	}
	return stored.Schedule()
}

// UpdateSchedule applies a partial update and persists the result.
func (s *Store) UpdateSchedule(ctx context.Context, userID clock.UserID, patch clock.SchedulePatch) (clock.WorkSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.scheduleLocked(ctx, userID)
	if err != nil {
		return clock.WorkSchedule{}, err
	}
	updated, err := patch.Apply(current)
	if err != nil {
		return clock.WorkSchedule{}, err
	}
	if err := s.saveScheduleLocked(ctx, userID, updated); err != nil {
		return clock.WorkSchedule{}, err
	}
	return updated, nil
}

func (s *Store) saveScheduleLocked(ctx context.Context, userID clock.UserID, schedule clock.WorkSchedule) error {
	doc, err := json.Marshal(schedule.Doc())
	if err != nil {
		return err
	}
	query := `
		INSERT INTO schedules (user_id, doc_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			doc_json = excluded.doc_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, string(userID), string(doc), s.now().UTC().Format(time.RFC3339))
	if isForeignKeyError(err) {
		return fmt.Errorf("%w: %s", clock.ErrUserNotFound, userID)
	}
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo) and ends every subscription.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"records", "schedules", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	s.feed.Close()
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
