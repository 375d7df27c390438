package webex

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/common"
)

// reply posts a threaded markdown message under parentId.
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
	parentID := threadID(input)
	if parentID == "" {
		return core.ErrorResult("reply_to_id or thread_id required")
	}

	token, err := common.FetchToken(ctx, p.deps.Secrets, p.config.TokenKey)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	if token == "" {
		return core.ErrorResult("access token empty")
	}

	body, err := replyBody(parentID, text.Str)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	res, err := p.dispatcher.PostJSON(ctx, p.messagesURL(cfg), token, body)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	return deliveryResult("replied", res.Body, replyPlaceholderID)
}

// replyBody builds {parentId, markdown}.
func replyBody(parentID string, markdown string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte("{}"), "parentId", parentID)
	if err != nil {
		return nil, core.InputError("encode reply body: " + err.Error())
	}
	body, err = sjson.SetBytes(body, "markdown", markdown)
	if err != nil {
		return nil, core.InputError("encode reply body: " + err.Error())
	}
	return body, nil
}

func threadID(input []byte) string {
	for _, key := range []string{"reply_to_id", "thread_id"} {
		if value := gjson.GetBytes(input, key); value.Type == gjson.String && value.Str != "" {
			return value.Str
		}
	}
	return ""
}
