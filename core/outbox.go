package core

import (
	"context"
	"time"
)

const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusDelivered  = "delivered"
	OutboxStatusFailed     = "failed"
)

// QueuedPayload is an encoded provider payload waiting to be replayed through
// send_payload.
type QueuedPayload struct {
	ID            string
	ProviderType  string
	TenantID      string
	Payload       ProviderPayload
	Status        string
	Attempts      int
	NextAttemptAt *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PayloadOutboxStore persists queued payloads. Retry with a zero
// nextAttemptAt marks the payload failed.
type PayloadOutboxStore interface {
	Enqueue(ctx context.Context, payload QueuedPayload) (QueuedPayload, error)
	ClaimBatch(ctx context.Context, limit int) ([]QueuedPayload, error)
	Ack(ctx context.Context, id string) error
	Retry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) error
}

type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}
