package snapshot

import (
	"context"
	"sync"
)

// Store keeps, per guild, the last observed invite code to cumulative use
// count mapping. It reflects state as of the last event or refresh, never
// real time; attribution re-fetches live state and diffs against it.
type Store interface {
	Snapshot(ctx context.Context, guildID string) (map[string]int, error)
	Replace(ctx context.Context, guildID string, uses map[string]int) error
	Patch(ctx context.Context, guildID, code string, uses int) error
	Remove(ctx context.Context, guildID, code string) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	guilds map[string]map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{guilds: make(map[string]map[string]int)}
}

func (s *MemoryStore) Snapshot(ctx context.Context, guildID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uses := make(map[string]int, len(s.guilds[guildID]))
	for code, n := range s.guilds[guildID] {
		uses[code] = n
	}
	return uses, nil
}

func (s *MemoryStore) Replace(ctx context.Context, guildID string, uses map[string]int) error {
	copied := make(map[string]int, len(uses))
	for code, n := range uses {
		copied[code] = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[guildID] = copied
	return nil
}

func (s *MemoryStore) Patch(ctx context.Context, guildID, code string, uses int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.guilds[guildID]
	if !ok {
		m = make(map[string]int)
		s.guilds[guildID] = m
	}
	m[code] = uses
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, guildID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.guilds[guildID]; ok {
		delete(m, code)
	}
	return nil
}
