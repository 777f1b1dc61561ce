package store

import (
	"context"
	"sync"
	"time"

	"github.com/sketchify/relay/internal/domain"
)

type memoryEntry struct {
	snap     domain.Snapshot
	deadline time.Time
}

// Memory is a TTL-aware in-memory store for tests and redis-less
// development. State is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = SnapshotTTL
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Memory) Save(_ context.Context, room domain.RoomID, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[roomKey(room)] = memoryEntry{snap: snap, deadline: s.now().Add(s.ttl)}
	return nil
}

func (s *Memory) Load(_ context.Context, room domain.RoomID) (domain.Snapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[roomKey(room)]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.deadline) {
		return domain.Snapshot{}, nil
	}
	return entry.snap, nil
}

func (s *Memory) Close() error { return nil }
