package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-messaging-providers/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const (
	JobIDSendPayload      = "messaging.send_payload"
	ScriptPathSendPayload = "messaging.send_payload"
)

const (
	paramProviderType = "provider_type"
	paramTenantID     = "tenant_id"
	paramContentType  = "content_type"
	paramBodyB64      = "body_b64"
	paramMetadata     = "metadata"
)

// RetryPolicy bounds how often a retryable send is requeued.
type RetryPolicy struct {
	MaxAttempts     int
	RetryDelay      time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt clamps a nack to the policy. A nack that neither requeues
// nor dead-letters is requeued.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// ToExecutionMessage carries a queued payload as a go-job message. The
// payload id doubles as the idempotency key.
func ToExecutionMessage(payload core.QueuedPayload) *job.ExecutionMessage {
	metadata := make(map[string]any, len(payload.Payload.Metadata))
	for key, value := range payload.Payload.Metadata {
		metadata[key] = value
	}
	return &job.ExecutionMessage{
		JobID:      JobIDSendPayload,
		ScriptPath: ScriptPathSendPayload,
		Parameters: map[string]any{
			paramProviderType: strings.TrimSpace(payload.ProviderType),
			paramTenantID:     strings.TrimSpace(payload.TenantID),
			paramContentType:  payload.Payload.ContentType,
			paramBodyB64:      payload.Payload.BodyB64,
			paramMetadata:     metadata,
		},
		IdempotencyKey: strings.TrimSpace(payload.ID),
	}
}

// FromExecutionMessage rebuilds the send_payload input carried by msg.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.SendPayloadIn, error) {
	if msg == nil {
		return core.SendPayloadIn{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDSendPayload {
		return core.SendPayloadIn{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	providerType := stringParam(msg.Parameters, paramProviderType)
	if providerType == "" {
		return core.SendPayloadIn{}, fmt.Errorf("gojob: %s parameter is required", paramProviderType)
	}
	in := core.SendPayloadIn{
		ProviderType: providerType,
		Payload: core.ProviderPayload{
			ContentType: stringParam(msg.Parameters, paramContentType),
			BodyB64:     stringParam(msg.Parameters, paramBodyB64),
			Metadata:    metadataParam(msg.Parameters[paramMetadata]),
		},
	}
	if tenant := stringParam(msg.Parameters, paramTenantID); tenant != "" {
		in.TenantID = &tenant
	}
	return in, nil
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, payload core.QueuedPayload) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(payload.ProviderType) == "" {
		return fmt.Errorf("gojob: provider type is required")
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(payload))
}

// Sender is satisfied by messaging.Service.
type Sender interface {
	SendPayload(ctx context.Context, req core.SendPayloadIn) (core.SendPayloadResult, error)
}

// Consumer replays go-job deliveries through send_payload and settles each
// delivery from the result.
type Consumer struct {
	dequeuer queue.Dequeuer
	sender   Sender
	policy   RetryPolicy
	logger   core.Logger
}

func NewConsumer(dequeuer queue.Dequeuer, sender Sender, policy RetryPolicy, logger core.Logger) *Consumer {
	return &Consumer{
		dequeuer: dequeuer,
		sender:   sender,
		policy:   policy,
		logger:   glog.Ensure(logger),
	}
}

// ConsumeOne dequeues a single delivery and settles it.
func (c *Consumer) ConsumeOne(ctx context.Context) error {
	if c == nil || c.dequeuer == nil {
		return fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := c.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return c.Process(ctx, delivery, 0)
}

// Process acks a delivered payload. A retryable failure is requeued after
// RetryDelay; anything else is dead-lettered.
func (c *Consumer) Process(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if c == nil || c.sender == nil {
		return fmt.Errorf("gojob: sender is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	in, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		c.logger.Warn("dropping undecodable delivery", "error", err)
		return c.nack(ctx, delivery, attempt, queue.NackOptions{DeadLetter: true, Reason: err.Error()})
	}

	result, err := c.sender.SendPayload(ctx, in)
	if err == nil && result.OK {
		return delivery.Ack(ctx)
	}
	reason := ""
	switch {
	case err != nil:
		reason = err.Error()
	case result.Message != nil:
		reason = *result.Message
	default:
		reason = "send_payload failed"
	}
	if err == nil && result.Retryable {
		return c.nack(ctx, delivery, attempt, queue.NackOptions{Requeue: true, Delay: c.policy.RetryDelay, Reason: reason})
	}
	c.logger.Warn("send_payload failed permanently", "provider_type", in.ProviderType, "reason", reason)
	return c.nack(ctx, delivery, attempt, queue.NackOptions{DeadLetter: true, Reason: reason})
}

func (c *Consumer) nack(ctx context.Context, delivery queue.Delivery, attempt int, opts queue.NackOptions) error {
	return delivery.Nack(ctx, c.policy.NormalizeAttempt(opts, attempt))
}

// LoggingHook reports worker lifecycle events for send_payload jobs.
type LoggingHook struct {
	logger core.Logger
}

func NewLoggingHook(logger core.Logger) *LoggingHook {
	return &LoggingHook{logger: glog.Ensure(logger)}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	h.logger.Debug("send_payload job started", eventFields(event)...)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.logger.Debug("send_payload job delivered", eventFields(event)...)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	h.logger.Warn("send_payload job failed", eventFields(event)...)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	h.logger.Warn("send_payload job retrying", eventFields(event)...)
}

func eventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{"attempt", event.Attempt, "delay", event.Delay, "duration", event.Duration}
	if message != nil {
		fields = append(fields,
			"payload_id", message.IdempotencyKey,
			"provider_type", stringParam(message.Parameters, paramProviderType),
		)
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}

func stringParam(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return strings.TrimSpace(value)
}

// metadataParam accepts both the in-process map and the shape a JSON-backed
// queue hands back.
func metadataParam(raw any) map[string]string {
	out := map[string]string{}
	switch typed := raw.(type) {
	case map[string]string:
		for key, value := range typed {
			out[key] = value
		}
	case map[string]any:
		for key, value := range typed {
			if text, ok := value.(string); ok {
				out[key] = text
			}
		}
	}
	return out
}

var _ worker.Hook = (*LoggingHook)(nil)
