package common

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-messaging-providers/core"
)

const TierC = "TierC"

// RenderPlan builds the lowest common denominator plan for a message.
func RenderPlan(input []byte, placeholder string) []byte {
	var in core.RenderPlanIn
	if err := json.Unmarshal(input, &in); err != nil {
		return core.ErrorResult(fmt.Sprintf("invalid render input: %v", err))
	}
	summary := in.Message.MessageText()
	if strings.TrimSpace(summary) == "" {
		summary = placeholder
	}
	debug := in.Metadata
	if debug == nil {
		debug = map[string]any{}
	}
	plan, err := json.Marshal(core.RenderPlan{
		Tier:        TierC,
		SummaryText: summary,
		Actions:     []string{},
		Attachments: []string{},
		Warnings:    []string{},
		Debug:       debug,
	})
	if err != nil {
		plan = []byte(`{"tier":"TierC"}`)
	}
	return core.OKResult(map[string]any{
		"plan": core.RenderPlanOut{PlanJSON: string(plan)},
	})
}

// Encode serializes the message into a replayable ProviderPayload targeting
// url with method.
func Encode(input []byte, url string, method string) []byte {
	var in core.EncodeIn
	if err := json.Unmarshal(input, &in); err != nil {
		return core.ErrorResult(fmt.Sprintf("invalid encode input: %v", err))
	}
	message := normalizeEnvelope(in.Message)
	body, err := json.Marshal(message)
	if err != nil {
		body = []byte("{}")
	}
	return core.OKResult(map[string]any{
		"payload": core.ProviderPayload{
			ContentType: "application/json",
			BodyB64:     base64.StdEncoding.EncodeToString(body),
			Metadata: map[string]string{
				"url":    url,
				"method": method,
			},
		},
	})
}

// SendFunc runs a provider's send pipeline on raw request bytes.
type SendFunc func(ctx context.Context, input []byte) []byte

// SendPayload replays an encoded payload through send. Every outcome is
// reported as non-retryable.
func SendPayload(ctx context.Context, input []byte, providerType string, send SendFunc) []byte {
	var in core.SendPayloadIn
	if err := json.Unmarshal(input, &in); err != nil {
		return sendPayloadResult(false, fmt.Sprintf("invalid send_payload input: %v", err))
	}
	if in.ProviderType != providerType {
		return sendPayloadResult(false, "provider type mismatch")
	}
	body, err := base64.StdEncoding.DecodeString(in.Payload.BodyB64)
	if err != nil {
		return sendPayloadResult(false, fmt.Sprintf("payload decode failed: %v", err))
	}
	if !json.Valid(body) {
		body = []byte("null")
	}
	result := send(ctx, body)
	if core.ResultOK(result) {
		return sendPayloadResult(true, "")
	}
	message := core.ResultMessage(result)
	if strings.TrimSpace(message) == "" {
		message = "send_payload failed"
	}
	return sendPayloadResult(false, message)
}

func sendPayloadResult(ok bool, message string) []byte {
	result := core.SendPayloadResult{OK: ok, Retryable: false}
	if message != "" {
		result.Message = core.StringPtr(message)
	}
	return core.MarshalResult(result)
}

func normalizeEnvelope(envelope core.ChannelMessageEnvelope) core.ChannelMessageEnvelope {
	if envelope.To == nil {
		envelope.To = []core.Destination{}
	}
	if envelope.Attachments == nil {
		envelope.Attachments = []core.Attachment{}
	}
	if envelope.Metadata == nil {
		envelope.Metadata = core.MessageMetadata{}
	}
	return envelope
}
