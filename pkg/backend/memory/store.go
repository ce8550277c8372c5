package memory

import (
	"context"
	"sync"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
	"github.com/rs/zerolog"
)

// DefaultReapInterval is the reaper's fixed cadence (§4.B: default 60s).
const DefaultReapInterval = 60 * time.Second

type entry struct {
	record    tasks.Task
	expiresAt time.Time
}

// Store is a TTL-bound map from id to (record, expiresAt). Reads check
// expiresAt against the current time and treat expired entries as absent
// (lazy expiry). A background reaper removes expired entries on a fixed
// cadence; its lifecycle is owned by the Store: started by NewStore,
// stopped by Close.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	log      zerolog.Logger
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

// NewStore constructs a Store and starts its reaper goroutine immediately.
// interval <= 0 selects DefaultReapInterval. Callers must call Close to
// stop the reaper and release its goroutine.
func NewStore(interval time.Duration, log zerolog.Logger) *Store {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	s := &Store{
		entries:  make(map[string]entry),
		log:      log,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.reap()
	return s
}

// Close stops the reaper and waits for it to exit. The store must not be
// used for further operations afterward.
func (s *Store) Close() error {
	close(s.done)
	<-s.stopped
	return nil
}

func (s *Store) reap() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.reapOnce(now)
		}
	}
}

func (s *Store) reapOnce(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("reaper: removed expired results")
	}
}

// Put stores record under id, overwriting any prior record, with
// expiry = now + ttl.
func (s *Store) Put(_ context.Context, id string, record tasks.Task, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{record: record, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get returns the record for id, or backend.ErrNotFound if absent or
// expired. An expired entry is never returned, even if the reaper hasn't
// swept it yet.
func (s *Store) Get(_ context.Context, id string) (tasks.Task, bool, error) {
	s.mu.RLock()
	e, found := s.entries[id]
	s.mu.RUnlock()
	if !found || !e.expiresAt.After(time.Now()) {
		return tasks.Task{}, false, backend.ErrNotFound
	}
	return e.record, true, nil
}

// Delete removes id. Idempotent: deleting an absent id succeeds.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Exists reports whether id has a live (unexpired) record.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.Get(ctx, id)
	if err == backend.ErrNotFound {
		return false, nil
	}
	return ok, err
}
