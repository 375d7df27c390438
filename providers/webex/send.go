package webex

import (
	"context"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/destination"
	"github.com/goliatone/go-messaging-providers/providers/common"
)

func (p *Provider) send(ctx context.Context, input []byte) []byte {
	decoded, err := common.DecodeSendInput(input)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	envelope := decoded.Envelope
	if len(envelope.Attachments) > 0 {
		return core.ErrorResult("attachments not supported")
	}

	cfg, err := p.resolver.Resolve(decoded.Raw, envelope.Metadata)
	if err != nil {
		return core.ErrorResultFrom(err)
	}

	text := strings.TrimSpace(envelope.MessageText())
	if text == "" {
		return core.ErrorResult("text required")
	}

	target, err := destination.Resolve(envelope, cfg.DefaultRoomID)
	if err != nil {
		if destination.IsDestinationRequired(err) {
			return core.DestinationRequiredResult()
		}
		return core.ErrorResultFrom(err)
	}
	p.observer.Debug(ctx, "webex destination resolved", map[string]any{
		"provider_type":  ProviderType,
		"kind":           string(target.Kind),
		"session_id":     envelope.SessionID,
		"correlation_id": envelope.CorrelationID,
	})

	token, err := common.FetchToken(ctx, p.deps.Secrets, p.config.TokenKey)
	if err != nil {
		return core.ErrorResultFrom(err)
	}

	body, err := messageBody(text, target)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	res, err := p.dispatcher.PostJSON(ctx, p.messagesURL(cfg), token, body)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	return deliveryResult("sent", res.Body, messagePlaceholderID)
}

// messageBody builds {text, roomId|toPersonEmail|toPersonId} keeping the
// field order Webex documents.
func messageBody(text string, target destination.Target) ([]byte, error) {
	body, err := sjson.SetBytes([]byte("{}"), "text", text)
	if err != nil {
		return nil, core.InputError("encode message body: " + err.Error())
	}
	var field string
	switch target.Kind {
	case destination.KindRoom:
		field = "roomId"
	case destination.KindPersonEmail:
		field = "toPersonEmail"
	case destination.KindPersonID:
		field = "toPersonId"
	default:
		return nil, core.ValidationError("unsupported destination kind: " + string(target.Kind))
	}
	body, err = sjson.SetBytes(body, field, target.ID)
	if err != nil {
		return nil, core.InputError("encode message body: " + err.Error())
	}
	return body, nil
}

func deliveryResult(status string, responseBody []byte, placeholder string) []byte {
	messageID := common.ResponseID(responseBody, "id", placeholder)
	return core.OKResult(map[string]any{
		"status":              status,
		"provider_type":       ProviderType,
		"message_id":          messageID,
		"provider_message_id": platformName + ":" + messageID,
		"response":            common.ResponseValue(responseBody),
	})
}
