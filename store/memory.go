package store

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/slices"
)

// MemoryStore keeps the session's events in a map. It backs the engine when
// the embedding application supplies no persistent store, and every test.
type MemoryStore struct {
	mu     deadlock.RWMutex
	events map[string]nostr.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]nostr.Event)}
}

func (s *MemoryStore) SaveEvent(e nostr.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return nil
}

func (s *MemoryStore) QueryEvents(f nostr.Filter) ([]nostr.Event, error) {
	s.mu.RLock()
	var matched []nostr.Event
	for _, e := range s.events {
		e := e
		if f.Matches(&e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	// Newest first, then apply the result-count limit the way a relay would.
	slices.SortFunc(matched, func(a, b nostr.Event) int {
		return int(b.CreatedAt) - int(a.CreatedAt)
	})
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) CountEvents(f nostr.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.events {
		e := e
		if f.Matches(&e) {
			n++
		}
	}
	return n, nil
}
