package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

type OutboxDispatcherConfig struct {
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultOutboxDispatcherConfig() OutboxDispatcherConfig {
	return OutboxDispatcherConfig{
		BatchSize:      50,
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     5 * time.Minute,
	}
}

// OutboxDispatcher replays queued payloads through each provider's
// send_payload operation. Only results flagged retryable are rescheduled;
// everything else is acked or marked failed.
type OutboxDispatcher struct {
	store    PayloadOutboxStore
	registry Registry
	config   OutboxDispatcherConfig
	observer Observer
	now      func() time.Time
}

func NewOutboxDispatcher(
	store PayloadOutboxStore,
	registry Registry,
	config OutboxDispatcherConfig,
	deps ...Dependencies,
) (*OutboxDispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("core: outbox store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("core: provider registry is required")
	}
	defaults := DefaultOutboxDispatcherConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	var resolved Dependencies
	if len(deps) > 0 {
		resolved = deps[0]
	}
	resolved = ResolveDependencies("messaging.outbox", resolved)
	return &OutboxDispatcher{
		store:    store,
		registry: registry,
		config:   config,
		observer: NewObserver(resolved.Logger, resolved.MetricsRecorder),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// DispatchPending claims up to batchSize payloads and replays each one.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error) {
	if d == nil || d.store == nil {
		return DispatchStats{}, fmt.Errorf("core: outbox dispatcher is not configured")
	}
	limit := batchSize
	if limit <= 0 {
		limit = d.config.BatchSize
	}
	startedAt := time.Now()
	payloads, err := d.store.ClaimBatch(ctx, limit)
	if err != nil {
		return DispatchStats{}, err
	}

	stats := DispatchStats{Claimed: len(payloads)}
	var dispatchErr error
	for _, payload := range payloads {
		result, err := d.dispatchOne(ctx, payload)
		if err == nil && result.OK {
			if ackErr := d.store.Ack(ctx, strings.TrimSpace(payload.ID)); ackErr != nil {
				dispatchErr = joinErrors(dispatchErr, ackErr)
				continue
			}
			stats.Delivered++
			continue
		}

		cause := err
		if cause == nil {
			cause = fmt.Errorf("%s", resultFailureMessage(result))
		}
		retryable := err == nil && result.Retryable
		rescheduled, retryErr := d.retryPayload(ctx, payload, cause, retryable)
		if retryErr != nil {
			dispatchErr = joinErrors(dispatchErr, retryErr)
		}
		if rescheduled {
			stats.Retried++
		} else {
			stats.Failed++
		}
	}

	d.observer.Observe(ctx, startedAt, "outbox_dispatch", dispatchErr == nil, map[string]any{
		"claimed":   stats.Claimed,
		"delivered": stats.Delivered,
		"retried":   stats.Retried,
		"failed":    stats.Failed,
	})
	return stats, dispatchErr
}

func (d *OutboxDispatcher) dispatchOne(ctx context.Context, payload QueuedPayload) (SendPayloadResult, error) {
	component, ok := d.registry.Get(payload.ProviderType)
	if !ok {
		return SendPayloadResult{}, fmt.Errorf("core: provider not registered: %s", payload.ProviderType)
	}
	in := SendPayloadIn{
		ProviderType: payload.ProviderType,
		Payload:      payload.Payload,
	}
	if tenant := strings.TrimSpace(payload.TenantID); tenant != "" {
		in.TenantID = &tenant
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return SendPayloadResult{}, fmt.Errorf("core: encode send_payload input: %w", err)
	}

	var result SendPayloadResult
	if err := json.Unmarshal(component.Invoke(ctx, OpSendPayload, raw), &result); err != nil {
		return SendPayloadResult{}, fmt.Errorf("core: decode send_payload result: %w", err)
	}
	return result, nil
}

func (d *OutboxDispatcher) retryPayload(ctx context.Context, payload QueuedPayload, cause error, retryable bool) (bool, error) {
	attempt := payload.Attempts
	if attempt < 0 {
		attempt = 0
	}
	if !retryable || attempt+1 >= d.config.MaxAttempts {
		return false, d.store.Retry(ctx, strings.TrimSpace(payload.ID), cause, time.Time{})
	}
	nextAttemptAt := d.now().Add(d.nextBackoffDelay(attempt + 1))
	return true, d.store.Retry(ctx, strings.TrimSpace(payload.ID), cause, nextAttemptAt)
}

func (d *OutboxDispatcher) nextBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(d.config.InitialBackoff)
	multiplier := math.Pow(2, float64(attempt-1))
	next := time.Duration(base * multiplier)
	if next < 0 {
		return d.config.MaxBackoff
	}
	if next > d.config.MaxBackoff {
		return d.config.MaxBackoff
	}
	return next
}

func resultFailureMessage(result SendPayloadResult) string {
	if result.Message != nil && strings.TrimSpace(*result.Message) != "" {
		return *result.Message
	}
	return "send_payload failed"
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}
