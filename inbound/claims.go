package inbound

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ClaimStore guards event delivery. Claim reports false while another
// delivery of key is in flight or after it completed.
type ClaimStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Complete(ctx context.Context, key string) error
	Fail(ctx context.Context, key string) error
}

type claimEntry struct {
	ttl       time.Duration
	expiresAt time.Time
}

// MemoryClaimStore keeps claims in process. An in-flight claim expires
// after its ttl; completing it restarts the ttl.
type MemoryClaimStore struct {
	mu      sync.Mutex
	entries map[string]claimEntry
	now     func() time.Time
}

func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{
		entries: map[string]claimEntry{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryClaimStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if s == nil {
		return false, inboundInternal("inbound: claim store is nil", nil)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if entry, ok := s.entries[key]; ok && now.Before(entry.expiresAt) {
		return false, nil
	}
	s.entries[key] = claimEntry{ttl: ttl, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryClaimStore) Complete(_ context.Context, key string) error {
	if s == nil {
		return inboundInternal("inbound: claim store is nil", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.TrimSpace(key)
	if entry, ok := s.entries[key]; ok {
		entry.expiresAt = s.now().Add(entry.ttl)
		s.entries[key] = entry
	}
	return nil
}

// Fail drops the claim so the next delivery is accepted.
func (s *MemoryClaimStore) Fail(_ context.Context, key string) error {
	if s == nil {
		return inboundInternal("inbound: claim store is nil", nil)
	}
	s.mu.Lock()
	delete(s.entries, strings.TrimSpace(key))
	s.mu.Unlock()
	return nil
}
