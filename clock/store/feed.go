package store

import (
	"context"
	"sync"

	"github.com/horacerta/timeclock/clock"
)

// =============================================================================
// FEED - Coalescing snapshot fan-out shared by every RecordStore
// =============================================================================

// Feed delivers record snapshots to per-user subscribers. Each subscriber
// runs its callback on its own goroutine and holds at most one pending
// snapshot: publishing while a snapshot is still pending replaces it.
//
// Callers must serialize Subscribe and Publish for the same user (stores do
// it under their write lock) so that snapshots reach subscribers in order.
type Feed struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[clock.UserID]map[uint64]*subscriber
}

type subscriber struct {
	pending chan []clock.DayRecord
	done    chan struct{}
	once    sync.Once
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[clock.UserID]map[uint64]*subscriber)}
}

// Subscribe registers fn for the user's snapshots and queues initial as the
// first delivery. The returned cancel func is safe to call more than once;
// cancelling ctx has the same effect.
func (f *Feed) Subscribe(ctx context.Context, userID clock.UserID, initial []clock.DayRecord, fn func([]clock.DayRecord)) func() {
	s := &subscriber{
		pending: make(chan []clock.DayRecord, 1),
		done:    make(chan struct{}),
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[uint64]*subscriber)
	}
	f.subs[userID][id] = s
	s.offer(clone(initial))
	f.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			close(s.done)
			f.remove(userID, id)
		})
	}

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				cancel()
				return
			case snap := <-s.pending:
				// Snapshots still queued at cancel are dropped.
				select {
				case <-s.done:
					return
				case <-ctx.Done():
					cancel()
					return
				default:
				}
				fn(snap)
			}
		}
	}()

	return cancel
}

// Publish hands a snapshot to every subscriber of the user.
func (f *Feed) Publish(userID clock.UserID, snapshot []clock.DayRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs[userID] {
		s.offer(clone(snapshot))
	}
}

// Subscribers returns the number of live subscriptions of the user.
func (f *Feed) Subscribers(userID clock.UserID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}

// Close cancels every subscription.
func (f *Feed) Close() {
	f.mu.Lock()
	var all []*subscriber
	for _, byID := range f.subs {
		for _, s := range byID {
			all = append(all, s)
		}
	}
	f.subs = make(map[clock.UserID]map[uint64]*subscriber)
	f.mu.Unlock()

	for _, s := range all {
		s.once.Do(func() { close(s.done) })
	}
}

func (f *Feed) remove(userID clock.UserID, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[userID], id)
	if len(f.subs[userID]) == 0 {
		delete(f.subs, userID)
	}
}

// offer replaces any pending snapshot with snap. Only called under Feed.mu,
// so no other sender competes for the slot.
func (s *subscriber) offer(snap []clock.DayRecord) {
	for {
		select {
		case s.pending <- snap:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

func clone(records []clock.DayRecord) []clock.DayRecord {
	out := make([]clock.DayRecord, len(records))
	copy(out, records)
	return out
}
