package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-messaging-providers/core"
)

// PayloadOutboxStore persists encoded provider payloads in
// messaging_payload_outbox.
type PayloadOutboxStore struct {
	db   *bun.DB
	repo repository.Repository[*payloadOutboxRecord]
	now  func() time.Time
}

func NewPayloadOutboxStore(db *bun.DB) (*PayloadOutboxStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*payloadOutboxRecord](db, payloadOutboxHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid payload outbox repository wiring: %w", err)
		}
	}
	return &PayloadOutboxStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *PayloadOutboxStore) Enqueue(ctx context.Context, payload core.QueuedPayload) (core.QueuedPayload, error) {
	if s == nil || s.repo == nil {
		return core.QueuedPayload{}, fmt.Errorf("sqlstore: payload outbox store is not configured")
	}
	if strings.TrimSpace(payload.ProviderType) == "" {
		return core.QueuedPayload{}, fmt.Errorf("sqlstore: outbox provider type is required")
	}
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		id = uuid.NewString()
	} else if parseUUID(id) == uuid.Nil {
		return core.QueuedPayload{}, fmt.Errorf("sqlstore: outbox payload id must be a uuid: %s", id)
	}

	now := s.now()
	record := &payloadOutboxRecord{
		ID:           id,
		ProviderType: strings.TrimSpace(payload.ProviderType),
		TenantID:     strings.TrimSpace(payload.TenantID),
		ContentType:  payload.Payload.ContentType,
		BodyB64:      payload.Payload.BodyB64,
		Metadata:     copyStringMap(payload.Payload.Metadata),
		Status:       core.OutboxStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.QueuedPayload{}, err
	}
	return recordToPayload(*created), nil
}

// ClaimBatch moves up to limit due pending rows to processing in one
// statement, oldest first.
func (s *PayloadOutboxStore) ClaimBatch(ctx context.Context, limit int) ([]core.QueuedPayload, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: payload outbox store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := s.now()
	var records []payloadOutboxRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT id
	FROM messaging_payload_outbox
	WHERE status = ?
	  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
	ORDER BY created_at ASC, id ASC
	LIMIT ?
)
UPDATE messaging_payload_outbox
SET status = ?, updated_at = ?
WHERE id IN (SELECT id FROM claimed)
  AND status = ?
RETURNING
	id,
	provider_type,
	tenant_id,
	content_type,
	body_b64,
	metadata,
	status,
	attempts,
	next_attempt_at,
	last_error,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			core.OutboxStatusPending,
			now,
			limit,
			core.OutboxStatusProcessing,
			now,
			core.OutboxStatusPending,
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	payloads := make([]core.QueuedPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, recordToPayload(record))
	}
	return payloads, nil
}

func (s *PayloadOutboxStore) Ack(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: payload outbox store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: outbox payload id is required")
	}
	_, err := s.db.NewUpdate().
		Model((*payloadOutboxRecord)(nil)).
		Set("status = ?", core.OutboxStatusDelivered).
		Set("last_error = ?", "").
		Set("next_attempt_at = NULL").
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// Retry reschedules the payload, or marks it failed when nextAttemptAt is
// zero.
func (s *PayloadOutboxStore) Retry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: payload outbox store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: outbox payload id is required")
	}
	status := core.OutboxStatusPending
	var next *time.Time
	if nextAttemptAt.IsZero() {
		status = core.OutboxStatusFailed
	} else {
		value := nextAttemptAt.UTC()
		next = &value
	}
	lastError := ""
	if cause != nil {
		lastError = strings.TrimSpace(cause.Error())
	}
	_, err := s.db.NewUpdate().
		Model((*payloadOutboxRecord)(nil)).
		Set("status = ?", status).
		Set("attempts = attempts + 1").
		Set("next_attempt_at = ?", next).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *PayloadOutboxStore) Get(ctx context.Context, id string) (core.QueuedPayload, error) {
	if s == nil || s.repo == nil {
		return core.QueuedPayload{}, fmt.Errorf("sqlstore: payload outbox store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return core.QueuedPayload{}, err
	}
	return recordToPayload(*record), nil
}

// ListByStatus returns payloads in the given status, oldest first.
func (s *PayloadOutboxStore) ListByStatus(ctx context.Context, status string, limit int) ([]core.QueuedPayload, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: payload outbox store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", strings.TrimSpace(status)),
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	payloads := make([]core.QueuedPayload, 0, len(records))
	for _, record := range records {
		if record != nil {
			payloads = append(payloads, recordToPayload(*record))
		}
	}
	return payloads, nil
}

func recordToPayload(record payloadOutboxRecord) core.QueuedPayload {
	return core.QueuedPayload{
		ID:           record.ID,
		ProviderType: record.ProviderType,
		TenantID:     record.TenantID,
		Payload: core.ProviderPayload{
			ContentType: record.ContentType,
			BodyB64:     record.BodyB64,
			Metadata:    copyStringMap(record.Metadata),
		},
		Status:        record.Status,
		Attempts:      record.Attempts,
		NextAttemptAt: record.NextAttempt,
		LastError:     record.LastError,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
