package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/goliatone/go-messaging-providers/core"
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
	channel := resolveChannel(envelope, cfg.DefaultChannel)
	if channel == "" {
		return core.DestinationRequiredResult()
	}

	token, err := common.FetchToken(ctx, p.deps.Secrets, p.config.TokenKey)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	body, err := messageBody(channel, text, "")
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	return p.post(ctx, cfg, token, body, "sent", messagePlaceholderID)
}

// resolveChannel picks the first recipient with a non-blank id, then the
// default channel. Slack addresses rooms and users through the same field.
func resolveChannel(envelope core.ChannelMessageEnvelope, defaultChannel string) string {
	for _, dest := range envelope.To {
		if strings.TrimSpace(dest.ID) != "" {
			return dest.ID
		}
	}
	if strings.TrimSpace(defaultChannel) != "" {
		return defaultChannel
	}
	return ""
}

// messageBody builds {channel, text, blocks[, thread_ts]} with a single
// mrkdwn section block.
func messageBody(channel string, text string, threadTS string) ([]byte, error) {
	blocks, err := json.Marshal([]map[string]any{{
		"type": "section",
		"text": map[string]string{"type": "mrkdwn", "text": text},
	}})
	if err != nil {
		return nil, core.InputError("encode message body: " + err.Error())
	}
	body, err := sjson.SetBytes([]byte("{}"), "channel", channel)
	if err == nil {
		body, err = sjson.SetBytes(body, "text", text)
	}
	if err == nil {
		body, err = sjson.SetRawBytes(body, "blocks", blocks)
	}
	if err == nil && threadTS != "" {
		body, err = sjson.SetBytes(body, "thread_ts", threadTS)
	}
	if err != nil {
		return nil, core.InputError("encode message body: " + err.Error())
	}
	return body, nil
}

// post calls chat.postMessage. Slack reports API failures with a 200 status
// and {"ok":false,"error":...}, which are treated as failures too.
func (p *Provider) post(ctx context.Context, cfg ProviderConfig, token string, body []byte, status string, placeholder string) []byte {
	url := p.apiBase(cfg) + "/chat.postMessage"
	res, err := p.dispatcher.PostJSON(ctx, url, token, body)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	if ok := gjson.GetBytes(res.Body, "ok"); ok.Exists() && !ok.Bool() {
		return core.ErrorResult(fmt.Sprintf(
			"slack returned error %s for POST %s body=%s", gjson.GetBytes(res.Body, "error").String(), url, body,
		))
	}
	messageID := common.ResponseID(res.Body, "ts", placeholder)
	return core.OKResult(map[string]any{
		"status":              status,
		"provider_type":       ProviderType,
		"message_id":          messageID,
		"provider_message_id": platformName + ":" + messageID,
		"response":            common.ResponseValue(res.Body),
	})
}
