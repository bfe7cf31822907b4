package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aquamind/aquamind/pkg/types"
)

// Entry is a readings snapshot together with the time it was last received.
type Entry struct {
	Readings  *types.PlantReadings
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory readings store, keyed by source_id.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the readings for r.SourceID.
// Callers must not modify r after calling Put.
func (s *Store) Put(r *types.PlantReadings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r.SourceID] = &Entry{
		Readings:  r,
		UpdatedAt: s.now(),
	}
}

// Get returns the Entry for the given source ID and a boolean indicating
// whether an entry was found. The entry may be stale if TTL has elapsed.
func (s *Store) Get(sourceID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[sourceID]
	return e, ok
}

// List returns a snapshot of all entries whose UpdatedAt is within the TTL.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Latest folds all live entries into one combined plant view, oldest source
// first, so the freshest instrument section wins per subsystem. The second
// return value is false when no live entries exist.
func (s *Store) Latest() (types.PlantReadings, bool) {
	entries := s.List()
	if len(entries) == 0 {
		return types.PlantReadings{}, false
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
	})

	merged := types.PlantReadings{SourceID: "combined"}
	for _, e := range entries {
		merged = merged.Merge(e.Readings)
	}
	return merged, true
}

// TTL returns the configured retention window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so entries are evicted promptly. Run blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale readings", "count", n)
			}
		}
	}
}
