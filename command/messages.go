package command

import (
	"strings"

	"github.com/goliatone/go-messaging-providers/core"
)

const (
	TypeInvoke         = "messaging.command.invoke"
	TypeSendPayload    = "messaging.command.send_payload"
	TypeEnqueuePayload = "messaging.command.outbox.enqueue"
	TypeDispatchOutbox = "messaging.command.outbox.dispatch"
)

// InvokeMessage runs one provider operation with raw JSON input.
type InvokeMessage struct {
	ProviderType string
	Op           string
	Input        []byte
}

func (InvokeMessage) Type() string { return TypeInvoke }

func (m InvokeMessage) Validate() error {
	if strings.TrimSpace(m.ProviderType) == "" {
		return commandValidationError("provider_type", "provider type is required")
	}
	if strings.TrimSpace(m.Op) == "" {
		return commandValidationError("op", "op is required")
	}
	return nil
}

// SendPayloadMessage replays an encoded payload immediately.
type SendPayloadMessage struct {
	Request core.SendPayloadIn
}

func (SendPayloadMessage) Type() string { return TypeSendPayload }

func (m SendPayloadMessage) Validate() error {
	if strings.TrimSpace(m.Request.ProviderType) == "" {
		return commandValidationError("provider_type", "provider type is required")
	}
	if strings.TrimSpace(m.Request.Payload.BodyB64) == "" {
		return commandValidationError("payload.body_b64", "payload body is required")
	}
	return nil
}

// EnqueuePayloadMessage stores an encoded payload for later dispatch.
type EnqueuePayloadMessage struct {
	ProviderType string
	TenantID     string
	Payload      core.ProviderPayload
}

func (EnqueuePayloadMessage) Type() string { return TypeEnqueuePayload }

func (m EnqueuePayloadMessage) Validate() error {
	if strings.TrimSpace(m.ProviderType) == "" {
		return commandValidationError("provider_type", "provider type is required")
	}
	if strings.TrimSpace(m.Payload.BodyB64) == "" {
		return commandValidationError("payload.body_b64", "payload body is required")
	}
	return nil
}

type DispatchOutboxMessage struct {
	BatchSize int
}

func (DispatchOutboxMessage) Type() string { return TypeDispatchOutbox }

func (m DispatchOutboxMessage) Validate() error {
	if m.BatchSize < 0 {
		return commandValidationError("batch_size", "batch size must be >= 0")
	}
	return nil
}
