package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryPayloadOutbox is an in-process PayloadOutboxStore for tests and
// single-node hosts.
type MemoryPayloadOutbox struct {
	mu      sync.Mutex
	records map[string]QueuedPayload
	now     func() time.Time
}

func NewMemoryPayloadOutbox() *MemoryPayloadOutbox {
	return &MemoryPayloadOutbox{
		records: make(map[string]QueuedPayload),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryPayloadOutbox) Enqueue(_ context.Context, payload QueuedPayload) (QueuedPayload, error) {
	if strings.TrimSpace(payload.ProviderType) == "" {
		return QueuedPayload{}, fmt.Errorf("core: outbox provider type is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if strings.TrimSpace(payload.ID) == "" {
		payload.ID = uuid.NewString()
	}
	if _, exists := s.records[payload.ID]; exists {
		return QueuedPayload{}, fmt.Errorf("core: outbox payload already queued: %s", payload.ID)
	}
	payload.Status = OutboxStatusPending
	payload.Attempts = 0
	payload.NextAttemptAt = nil
	payload.LastError = ""
	payload.CreatedAt = now
	payload.UpdatedAt = now
	s.records[payload.ID] = payload
	return payload, nil
}

func (s *MemoryPayloadOutbox) ClaimBatch(_ context.Context, limit int) ([]QueuedPayload, error) {
	if limit <= 0 {
		limit = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	candidates := make([]QueuedPayload, 0, len(s.records))
	for _, record := range s.records {
		if record.Status != OutboxStatusPending {
			continue
		}
		if record.NextAttemptAt != nil && record.NextAttemptAt.After(now) {
			continue
		}
		candidates = append(candidates, record)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		candidates[i].Status = OutboxStatusProcessing
		candidates[i].UpdatedAt = now
		s.records[candidates[i].ID] = candidates[i]
	}
	return candidates, nil
}

func (s *MemoryPayloadOutbox) Ack(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("core: outbox payload not found: %s", id)
	}
	record.Status = OutboxStatusDelivered
	record.LastError = ""
	record.NextAttemptAt = nil
	record.UpdatedAt = s.now()
	s.records[record.ID] = record
	return nil
}

func (s *MemoryPayloadOutbox) Retry(_ context.Context, id string, cause error, nextAttemptAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("core: outbox payload not found: %s", id)
	}
	record.Attempts++
	record.UpdatedAt = s.now()
	record.LastError = ""
	if cause != nil {
		record.LastError = strings.TrimSpace(cause.Error())
	}
	if nextAttemptAt.IsZero() {
		record.Status = OutboxStatusFailed
		record.NextAttemptAt = nil
	} else {
		next := nextAttemptAt.UTC()
		record.Status = OutboxStatusPending
		record.NextAttemptAt = &next
	}
	s.records[record.ID] = record
	return nil
}

// Get returns a copy of the stored payload.
func (s *MemoryPayloadOutbox) Get(id string) (QueuedPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.TrimSpace(id)]
	return record, ok
}
