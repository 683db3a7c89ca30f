package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore keeps copies of states in a map with optimistic locking.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
	now      func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{sessions: make(map[string]*State), now: now}
}

func (s *memoryStore) Get(_ context.Context, key string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

func (s *memoryStore) Create(_ context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[st.Key]; ok {
		return ErrExists
	}
	now := s.now()
	st.CreatedAt = now
	st.UpdatedAt = now
	st.Version = 1

	s.sessions[st.Key] = st.Clone()
	return nil
}

func (s *memoryStore) Update(_ context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[st.Key]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != st.Version {
		return ErrVersionConflict
	}

	st.Version++
	st.UpdatedAt = s.now()
	s.sessions[st.Key] = st.Clone()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	return nil
}

func (s *memoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*State)
	return nil
}
