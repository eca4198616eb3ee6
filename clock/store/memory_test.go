package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/clock/store"
)

var monday = clock.NewDate(2024, time.March, 4)

func punched(text string) clock.PunchTime {
	return clock.Punched(clock.MustParseTimeOfDay(text))
}

// recorder collects deliveries from a subscription.
type recorder struct {
	mu    sync.Mutex
	snaps [][]clock.DayRecord
}

func (r *recorder) fn(snap []clock.DayRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recorder) last() []clock.DayRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

// =============================================================================
// RECORD TESTS
// =============================================================================

func TestMemory_UpsertCreatesThenMerges(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	// GIVEN: an entry punch on an empty day
	created, err := m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday, Entry: punched("08:00")})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// WHEN: lunch exit is upserted for the same date
	merged, err := m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday, LunchOut: punched("12:00")})
	require.NoError(t, err)

	// THEN: same record, both punches kept
	assert.Equal(t, created.ID, merged.ID)
	assert.Equal(t, punched("08:00"), merged.Entry)
	assert.Equal(t, punched("12:00"), merged.LunchOut)

	got, err := m.Get(ctx, "u1", monday)
	require.NoError(t, err)
	assert.Equal(t, merged, got)
}

func TestMemory_ReplaceClearsPunches(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday, Entry: punched("08:00"), Exit: punched("17:00")})
	require.NoError(t, err)

	replaced, err := m.Replace(ctx, clock.DayRecord{UserID: "u1", Date: monday, Entry: punched("09:00")})
	require.NoError(t, err)
	assert.Equal(t, punched("09:00"), replaced.Entry)
	assert.False(t, replaced.Exit.Valid)
}

func TestMemory_ListIsPerUserAndOrdered(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	for _, d := range []int{6, 4, 5} {
		_, err := m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: clock.NewDate(2024, time.March, d), Entry: punched("08:00")})
		require.NoError(t, err)
	}
	_, err := m.Upsert(ctx, clock.DayRecord{UserID: "u2", Date: monday, Entry: punched("08:00")})
	require.NoError(t, err)

	records, err := m.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-03-04", records[0].Date.String())
	assert.Equal(t, "2024-03-06", records[2].Date.String())
}

func TestMemory_DeleteScopedByUser(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	rec, err := m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday, Entry: punched("08:00")})
	require.NoError(t, err)

	err = m.Delete(ctx, "u2", rec.ID)
	assert.ErrorIs(t, err, clock.ErrRecordNotFound)

	require.NoError(t, m.Delete(ctx, "u1", rec.ID))
	_, err = m.Get(ctx, "u1", monday)
	assert.True(t, clock.IsNotFound(err))
}

func TestMemory_RejectsRecordWithoutKey(t *testing.T) {
	_, err := store.NewMemory().Upsert(context.Background(), clock.DayRecord{UserID: "u1"})
	assert.Error(t, err)
}

// =============================================================================
// SCHEDULE TESTS
// =============================================================================

func TestMemory_ScheduleDefaultsAndPatch(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	s, err := m.GetSchedule(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, clock.DefaultSchedule(), s)

	expected := 7 * clock.Hour
	s, err = m.UpdateSchedule(ctx, "u1", clock.SchedulePatch{ExpectedDaily: &expected})
	require.NoError(t, err)
	assert.Equal(t, expected, s.ExpectedDaily)

	bad := clock.Duration(-1)
	_, err = m.UpdateSchedule(ctx, "u1", clock.SchedulePatch{Break: &bad})
	assert.ErrorIs(t, err, clock.ErrInvalidSchedule)

	s, err = m.GetSchedule(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, expected, s.ExpectedDaily, "failed update leaves schedule unchanged")
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestMemory_SubscribeDeliversCurrentSetThenChanges(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday, Entry: punched("08:00")})
	require.NoError(t, err)

	rec := &recorder{}
	cancel, err := m.Subscribe(ctx, "u1", rec.fn)
	require.NoError(t, err)
	defer cancel()

	require.Eventually(t, func() bool { return len(rec.last()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday.AddDays(1), Entry: punched("08:00")})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)

	// Other users' changes are not delivered
	n := rec.count()
	_, err = m.Upsert(ctx, clock.DayRecord{UserID: "u2", Date: monday, Entry: punched("08:00")})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.count())
}

func TestMemory_CancelStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	rec := &recorder{}
	cancel, err := m.Subscribe(ctx, "u1", rec.fn)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	cancel() // idempotent

	_, err = m.Upsert(ctx, clock.DayRecord{UserID: "u1", Date: monday, Entry: punched("08:00")})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestFeed_ContextCancelUnsubscribes(t *testing.T) {
	feed := store.NewFeed()
	ctx, cancel := context.WithCancel(context.Background())

	feed.Subscribe(ctx, "u1", nil, func([]clock.DayRecord) {})
	assert.Equal(t, 1, feed.Subscribers("u1"))

	cancel()
	require.Eventually(t, func() bool { return feed.Subscribers("u1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestFeed_SlowSubscriberSeesLatestSnapshot(t *testing.T) {
	// GIVEN: a subscriber blocked inside its first delivery
	feed := store.NewFeed()
	release := make(chan struct{})
	rec := &recorder{}
	first := true

	stop := feed.Subscribe(context.Background(), "u1", nil, func(snap []clock.DayRecord) {
		if first {
			first = false
			<-release
		}
		rec.fn(snap)
	})
	defer stop()

	// WHEN: many snapshots are published while it is blocked
	for i := 1; i <= 10; i++ {
		snap := make([]clock.DayRecord, i)
		feed.Publish("u1", snap)
	}
	close(release)

	// THEN: it ends on the latest snapshot without seeing every one
	require.Eventually(t, func() bool { return len(rec.last()) == 10 }, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, rec.count(), 3)
}

func TestFeed_NoDeliveryAfterCancel(t *testing.T) {
	// GIVEN: a subscriber blocked in its first delivery with a snapshot queued
	feed := store.NewFeed()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	stop := feed.Subscribe(context.Background(), "u1", nil, func([]clock.DayRecord) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
	})
	<-started
	feed.Publish("u1", make([]clock.DayRecord, 1))

	// WHEN: it is cancelled before the callback returns
	stop()
	close(release)

	// THEN: the queued snapshot is never delivered
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
