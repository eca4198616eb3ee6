// Package store provides in-memory implementations of the clock store
// contracts and the snapshot Feed shared by every RecordStore.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/horacerta/timeclock/clock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements clock.RecordStore and clock.ScheduleStore.
type Memory struct {
	mu        sync.RWMutex
	records   map[key]clock.DayRecord
	schedules map[clock.UserID]clock.WorkSchedule
	feed      *Feed

	// Now stamps CreatedAt/UpdatedAt. Defaults to time.Now.
	Now func() time.Time
}

type key struct {
	UserID clock.UserID
	Date   string
}

var (
	_ clock.RecordStore   = (*Memory)(nil)
	_ clock.ScheduleStore = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		records:   make(map[key]clock.DayRecord),
		schedules: make(map[clock.UserID]clock.WorkSchedule),
		feed:      NewFeed(),
		Now:       time.Now,
	}
}

func keyOf(userID clock.UserID, d clock.Date) key {
	return key{UserID: userID, Date: d.String()}
}

// =============================================================================
// RECORDS
// =============================================================================

func (m *Memory) ListByUser(_ context.Context, userID clock.UserID) ([]clock.DayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(userID), nil
}

func (m *Memory) listLocked(userID clock.UserID) []clock.DayRecord {
	var out []clock.DayRecord
	for k, r := range m.records {
		if k.UserID == userID {
			out = append(out, r)
		}
	}
	return clock.SortByDate(out)
}

func (m *Memory) Get(_ context.Context, userID clock.UserID, d clock.Date) (clock.DayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[keyOf(userID, d)]
	if !ok {
		return clock.DayRecord{}, fmt.Errorf("%w: %s on %s", clock.ErrRecordNotFound, userID, d)
	}
	return r, nil
}

// Upsert creates the record or merges the punches present in rec.
func (m *Memory) Upsert(_ context.Context, rec clock.DayRecord) (clock.DayRecord, error) {
	return m.write(rec, func(existing clock.DayRecord) clock.DayRecord {
		return existing.Merge(rec)
	})
}

// Replace overwrites all four punches, creating the record if needed.
func (m *Memory) Replace(_ context.Context, rec clock.DayRecord) (clock.DayRecord, error) {
	return m.write(rec, func(existing clock.DayRecord) clock.DayRecord {
		existing.Entry = rec.Entry
		existing.LunchOut = rec.LunchOut
		existing.LunchReturn = rec.LunchReturn
		existing.Exit = rec.Exit
		return existing
	})
}

func (m *Memory) write(rec clock.DayRecord, update func(clock.DayRecord) clock.DayRecord) (clock.DayRecord, error) {
	if rec.UserID == "" || rec.Date.IsZero() {
		return clock.DayRecord{}, errors.New("record requires user and date")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	k := keyOf(rec.UserID, rec.Date)
	existing, ok := m.records[k]
	if !ok {
		existing = clock.DayRecord{
			ID:        rec.ID,
			UserID:    rec.UserID,
			Date:      rec.Date,
			CreatedAt: now,
		}
		if existing.ID == "" {
			existing.ID = clock.RecordID(uuid.NewString())
		}
	}

	stored := update(existing).Unresolve()
	stored.UpdatedAt = now
	m.records[k] = stored
	m.feed.Publish(rec.UserID, m.listLocked(rec.UserID))
	return stored, nil
}

func (m *Memory) Delete(_ context.Context, userID clock.UserID, id clock.RecordID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, r := range m.records {
		if k.UserID == userID && r.ID == id {
			delete(m.records, k)
			m.feed.Publish(userID, m.listLocked(userID))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", clock.ErrRecordNotFound, id)
}

func (m *Memory) DeleteAll(_ context.Context, userID clock.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.records {
		if k.UserID == userID {
			delete(m.records, k)
		}
	}
	m.feed.Publish(userID, nil)
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, userID clock.UserID, fn func([]clock.DayRecord)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feed.Subscribe(ctx, userID, m.listLocked(userID), fn), nil
}

// Reset drops every record and schedule and cancels subscriptions.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[key]clock.DayRecord)
	m.schedules = make(map[clock.UserID]clock.WorkSchedule)
	m.feed.Close()
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (m *Memory) GetSchedule(_ context.Context, userID clock.UserID) (clock.WorkSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduleLocked(userID), nil
}

func (m *Memory) scheduleLocked(userID clock.UserID) clock.WorkSchedule {
	s, ok := m.schedules[userID]
	if !ok {
		s = clock.DefaultSchedule()
		m.schedules[userID] = s
	}
	return s
}

func (m *Memory) UpdateSchedule(_ context.Context, userID clock.UserID, patch clock.SchedulePatch) (clock.WorkSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := patch.Apply(m.scheduleLocked(userID))
	if err != nil {
		return clock.WorkSchedule{}, err
	}
	m.schedules[userID] = s
	return s, nil
}
