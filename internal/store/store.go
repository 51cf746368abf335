// Package store holds the fingerprints of previously processed images.
package store

import (
	"context"
	"sync"
)

// FingerprintStore is the capability the pipeline needs for duplicate
// detection. Implementations must be safe for concurrent use.
type FingerprintStore interface {
	Contains(ctx context.Context, fingerprint string) (bool, error)
	Add(ctx context.Context, fingerprint string) error
}

// MemoryStore keeps fingerprints for the lifetime of the process. It
// only grows; there is no eviction.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore returns an empty in-process fingerprint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Contains reports whether the fingerprint was seen before.
func (s *MemoryStore) Contains(_ context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[fingerprint]
	return ok, nil
}

// Add records a fingerprint.
func (s *MemoryStore) Add(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[fingerprint] = struct{}{}
	return nil
}
