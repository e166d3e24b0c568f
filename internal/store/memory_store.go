package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
)

// memoryStore keeps both collections in process memory. Every operation runs
// under one RWMutex, so ExpireOne is trivially atomic against Join/Touch.
type memoryStore struct {
	mu           sync.RWMutex
	participants map[string]time.Time
	messages     []domain.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		participants: make(map[string]time.Time),
	}
}

func (s *memoryStore) Join(ctx context.Context, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[name]; ok {
		return domain.ErrConflict
	}
	s.participants[name] = now
	return nil
}

func (s *memoryStore) Touch(ctx context.Context, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[name]; !ok {
		return domain.ErrNotFound
	}
	s.participants[name] = now
	return nil
}

func (s *memoryStore) Get(ctx context.Context, name string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last, ok := s.participants[name]
	if !ok {
		return domain.Participant{}, domain.ErrNotFound
	}
	return domain.Participant{Name: name, LastActivity: last}, nil
}

func (s *memoryStore) List(ctx context.Context) ([]domain.Participant, error) {
	s.mu.RLock()
	out := make([]domain.Participant, 0, len(s.participants))
	for name, last := range s.participants {
		out = append(out, domain.Participant{Name: name, LastActivity: last})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) ExpireOne(ctx context.Context, threshold time.Time) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Oldest first keeps eviction order deterministic.
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for name, last := range s.participants {
		if !last.Before(threshold) {
			continue
		}
		if !found || last.Before(oldest) || (last.Equal(oldest) && name < victim) {
			victim, oldest, found = name, last, true
		}
	}
	if !found {
		return domain.Participant{}, domain.ErrNotFound
	}
	delete(s.participants, victim)
	return domain.Participant{Name: victim, LastActivity: oldest}, nil
}

func (s *memoryStore) Append(ctx context.Context, msg domain.Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Recent(ctx context.Context, viewer string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, 0, min(limit, len(s.messages)))
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if domain.Visible(viewer, s.messages[i]) {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

func (s *memoryStore) Close() error {
	return nil
}
