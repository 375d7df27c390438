package slack

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

func (p *Provider) ingestHTTP(ctx context.Context, input []byte) []byte {
	_, req, err := webhooks.Decode(input)
	if err != nil {
		return core.MarshalResult(webhooks.ErrorOutFrom(err))
	}
	if err := p.webhookTemplate().Authenticate(ctx, p.deps.Secrets, req); err != nil {
		return core.MarshalResult(webhooks.ErrorOutFrom(err))
	}

	body := req.Body
	if !gjson.ValidBytes(body) {
		body = nil
	}
	if gjson.GetBytes(body, "type").String() == "url_verification" {
		return core.MarshalResult(webhooks.RawOut("text/plain", []byte(gjson.GetBytes(body, "challenge").String())))
	}

	event := gjson.GetBytes(body, "event")
	channel := event.Get("channel").String()
	user := event.Get("user").String()

	metadata := core.MessageMetadata{"universal": "true"}
	if channel != "" {
		metadata["channel"] = channel
	}
	if user != "" {
		metadata["user"] = user
	}
	var scope *core.ReplyScope
	if thread := event.Get("thread_ts").String(); thread != "" {
		metadata["thread_ts"] = thread
		scope = &core.ReplyScope{Thread: thread}
	}
	var from *core.Actor
	if user != "" {
		from = &core.Actor{ID: user, Kind: "user"}
	}
	if channel == "" {
		channel = platformName
	}

	envelope := core.ChannelMessageEnvelope{
		ID:          platformName + "-" + channel,
		Tenant:      core.TenantCtx{Env: "default", Tenant: "default"},
		Channel:     channel,
		SessionID:   channel,
		ReplyScope:  scope,
		From:        from,
		To:          []core.Destination{},
		Text:        core.StringPtr(event.Get("text").String()),
		Attachments: []core.Attachment{},
		Metadata:    metadata,
	}
	return core.MarshalResult(webhooks.AcceptedOut(req.Body, envelope))
}
