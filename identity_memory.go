package codeAuth

import (
	"context"
	"strings"
	"sync"
)

// MemoryIdentityStore is an in-process IdentityStore for tests, examples and
// the load test.
type MemoryIdentityStore struct {
	mu      sync.RWMutex
	byID    map[string]Identity
	byEmail map[string]string
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:    make(map[string]Identity),
		byEmail: make(map[string]string),
	}
}

// Put inserts or replaces ident. The email is stored lowercased.
func (s *MemoryIdentityStore) Put(ident Identity) {
	ident.Email = strings.ToLower(strings.TrimSpace(ident.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byID[ident.ID]; ok {
		delete(s.byEmail, prev.Email)
	}
	s.byID[ident.ID] = ident
	s.byEmail[ident.Email] = ident.ID
}

// SetActive flips the active flag of the identity with id.
func (s *MemoryIdentityStore) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	ident.Active = active
	s.byID[id] = ident
	return nil
}

func (s *MemoryIdentityStore) FindActiveByEmail(ctx context.Context, email string) (Identity, error) {
	ident, err := s.FindByEmail(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if !ident.Active {
		return Identity{}, ErrIdentityNotFound
	}
	return ident, nil
}

func (s *MemoryIdentityStore) FindByEmail(_ context.Context, email string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryIdentityStore) FindByID(_ context.Context, id string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return ident, nil
}

func (s *MemoryIdentityStore) UpdatePassword(_ context.Context, id, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	ident.PasswordDigest = digest
	s.byID[id] = ident
	return nil
}

func (s *MemoryIdentityStore) UpdatePasswordAndActivate(_ context.Context, id, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	ident.PasswordDigest = digest
	ident.Active = true
	s.byID[id] = ident
	return nil
}
