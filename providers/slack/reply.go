package slack

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/common"
)

// reply posts into a thread identified by thread_ts.
func (p *Provider) reply(ctx context.Context, input []byte) []byte {
	raw, err := common.DecodeObject(input)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	cfg, err := p.resolver.Resolve(raw, nil)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	text := gjson.GetBytes(input, "text")
	if text.Type != gjson.String || strings.TrimSpace(text.Str) == "" {
		return core.ErrorResult("text required")
	}
	threadTS := stringField(input, "reply_to_id", "thread_id")
	if threadTS == "" {
		return core.ErrorResult("reply_to_id or thread_id required")
	}
	channel := stringField(input, "channel")
	if channel == "" {
		channel = cfg.DefaultChannel
	}
	if strings.TrimSpace(channel) == "" {
		return core.DestinationRequiredResult()
	}

	token, err := common.FetchToken(ctx, p.deps.Secrets, p.config.TokenKey)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	if token == "" {
		return core.ErrorResult("access token empty")
	}
	body, err := messageBody(channel, text.Str, threadTS)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	return p.post(ctx, cfg, token, body, "replied", replyPlaceholderID)
}

func stringField(input []byte, keys ...string) string {
	for _, key := range keys {
		if value := gjson.GetBytes(input, key); value.Type == gjson.String && value.Str != "" {
			return value.Str
		}
	}
	return ""
}
