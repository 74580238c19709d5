package credential

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]Credential
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]Credential)}
}

func (s *MemoryStore) Replace(_ context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[c.Binding][:0:0]
	for _, existing := range s.items[c.Binding] {
		if existing.Purpose == c.Purpose {
			continue
		}
		if existing.Code == c.Code && !existing.Expired(c.IssuedAt) {
			return ErrCodeCollision
		}
		kept = append(kept, existing)
	}
	s.items[c.Binding] = append(kept, c)
	return nil
}

func (s *MemoryStore) Redeem(_ context.Context, m Matcher, now time.Time) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.items[m.Binding]
	for i, c := range list {
		if c.Code != m.Code {
			continue
		}
		if c.Expired(now) {
			s.remove(m.Binding, i)
			return Credential{}, ErrNotFound
		}
		if m.Email != "" && !strings.EqualFold(c.Email, m.Email) {
			return Credential{}, ErrNotFound
		}
		s.remove(m.Binding, i)
		return c, nil
	}
	return Credential{}, ErrNotFound
}

func (s *MemoryStore) Purge(_ context.Context, binding string, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[binding][:0:0]
	for _, c := range s.items[binding] {
		if c.Purpose != purpose {
			kept = append(kept, c)
		}
	}
	s.set(binding, kept)
	return nil
}

func (s *MemoryStore) PurgeAll(_ context.Context, binding string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, binding)
	return nil
}

// Len returns the number of stored credentials for binding, expired ones included.
func (s *MemoryStore) Len(binding string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items[binding])
}

func (s *MemoryStore) remove(binding string, i int) {
	list := s.items[binding]
	next := append(list[:i:i], list[i+1:]...)
	s.set(binding, next)
}

func (s *MemoryStore) set(binding string, list []Credential) {
	if len(list) == 0 {
		delete(s.items, binding)
		return
	}
	s.items[binding] = list
}
