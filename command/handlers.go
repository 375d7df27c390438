package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-messaging-providers/core"
)

// InvokeService routes provider operations by provider type.
type InvokeService interface {
	Invoke(ctx context.Context, providerType string, op string, input []byte) ([]byte, error)
	SendPayload(ctx context.Context, req core.SendPayloadIn) (core.SendPayloadResult, error)
}

// OutboxService queues and replays encoded payloads.
type OutboxService interface {
	EnqueuePayload(ctx context.Context, providerType string, tenantID string, payload core.ProviderPayload) (core.QueuedPayload, error)
	DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error)
}

type InvokeCommand struct {
	service InvokeService
}

func NewInvokeCommand(service InvokeService) *InvokeCommand {
	return &InvokeCommand{service: service}
}

// Execute stores the raw JSON result; wire level failures are carried in
// the result, not returned as errors.
func (c *InvokeCommand) Execute(ctx context.Context, msg InvokeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: invoke service is required")
	}
	out, err := c.service.Invoke(ctx, msg.ProviderType, msg.Op, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SendPayloadCommand struct {
	service InvokeService
}

func NewSendPayloadCommand(service InvokeService) *SendPayloadCommand {
	return &SendPayloadCommand{service: service}
}

func (c *SendPayloadCommand) Execute(ctx context.Context, msg SendPayloadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: send payload service is required")
	}
	out, err := c.service.SendPayload(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type EnqueuePayloadCommand struct {
	service OutboxService
}

func NewEnqueuePayloadCommand(service OutboxService) *EnqueuePayloadCommand {
	return &EnqueuePayloadCommand{service: service}
}

func (c *EnqueuePayloadCommand) Execute(ctx context.Context, msg EnqueuePayloadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: outbox service is required")
	}
	out, err := c.service.EnqueuePayload(ctx, msg.ProviderType, msg.TenantID, msg.Payload)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DispatchOutboxCommand struct {
	service OutboxService
}

func NewDispatchOutboxCommand(service OutboxService) *DispatchOutboxCommand {
	return &DispatchOutboxCommand{service: service}
}

func (c *DispatchOutboxCommand) Execute(ctx context.Context, msg DispatchOutboxMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: outbox service is required")
	}
	stats, err := c.service.DispatchPending(ctx, msg.BatchSize)
	storeResult(ctx, stats)
	return err
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
