package memory

import (
	"sync"

	domain "profile-service/internal/domain/profile"
)

// ProfileStore holds the current profile in memory. Get returns copies so callers
// cannot mutate the held value.
type ProfileStore struct {
	mu      sync.RWMutex
	profile *domain.Profile
}

// NewProfileStore creates an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

// Get returns the current profile or nil.
func (s *ProfileStore) Get() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Set replaces the current profile.
func (s *ProfileStore) Set(p domain.Profile) {
	s.mu.Lock()
	s.profile = p.Clone()
	s.mu.Unlock()
}

// Clear empties the store.
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
}
