package webex

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

// inboundIdentity is the destination triple read from a webhook body. A
// nil slot is absent; a present empty string is kept. At most one of room
// or the person pair is set, except for the legacy personId field which
// fills both person slots.
type inboundIdentity struct {
	RoomID      *string
	PersonEmail *string
	PersonID    *string
}

func (p *Provider) ingestHTTP(ctx context.Context, input []byte) []byte {
	_, req, err := webhooks.Decode(input)
	if err != nil {
		return core.MarshalResult(webhooks.ErrorOutFrom(err))
	}
	if err := p.webhook.Authenticate(ctx, p.deps.Secrets, req); err != nil {
		p.observer.Debug(ctx, "webex webhook rejected", map[string]any{
			"provider_type": ProviderType,
			"error":         core.ErrorMessage(err),
		})
		return core.MarshalResult(webhooks.ErrorOutFrom(err))
	}

	body := req.Body
	if !gjson.ValidBytes(body) {
		body = nil
	}
	text := firstString(body, "text", "markdown")
	identity := extractIdentity(body)
	envelope := inboundEnvelope(text, identity)
	return core.MarshalResult(webhooks.AcceptedOut(req.Body, envelope))
}

// firstString returns the value of the first present key when it is a
// string. A present non-string key stops the lookup.
func firstString(body []byte, keys ...string) string {
	for _, key := range keys {
		value := gjson.GetBytes(body, key)
		if !value.Exists() {
			continue
		}
		if value.Type == gjson.String {
			return value.Str
		}
		return ""
	}
	return ""
}

// presentString is firstString with presence kept: nil when the first
// present key is not a string or no key is present.
func presentString(body []byte, keys ...string) *string {
	for _, key := range keys {
		value := gjson.GetBytes(body, key)
		if !value.Exists() {
			continue
		}
		if value.Type == gjson.String {
			return core.StringPtr(value.Str)
		}
		return nil
	}
	return nil
}

// extractIdentity reads roomId, then the person fields, then the "to"
// object. A "to" object without a string kind is ignored in favour of
// config.default_room_id.
func extractIdentity(body []byte) inboundIdentity {
	if room := presentString(body, "roomId"); room != nil {
		return inboundIdentity{RoomID: room}
	}
	email := presentString(body, "toPersonEmail", "personId")
	personID := presentString(body, "toPersonId", "personId")
	if email != nil || personID != nil {
		return inboundIdentity{PersonEmail: email, PersonID: personID}
	}

	configRoom := gjson.GetBytes(body, "config")
	var defaultRoom *string
	if configRoom.IsObject() {
		if value := configRoom.Get("default_room_id"); value.Type == gjson.String {
			defaultRoom = core.StringPtr(value.Str)
		}
	}

	to := gjson.GetBytes(body, "to")
	if !to.IsObject() {
		return inboundIdentity{RoomID: defaultRoom}
	}
	kind := to.Get("kind")
	if kind.Type != gjson.String {
		return inboundIdentity{RoomID: defaultRoom}
	}
	var id *string
	if value := to.Get("id"); value.Type == gjson.String {
		id = core.StringPtr(value.Str)
	}
	switch kind.Str {
	case "room":
		if id == nil {
			id = defaultRoom
		}
		return inboundIdentity{RoomID: id}
	case "personId", "person_id":
		return inboundIdentity{PersonID: id}
	default:
		return inboundIdentity{PersonEmail: id}
	}
}

func inboundEnvelope(text string, identity inboundIdentity) core.ChannelMessageEnvelope {
	metadata := core.MessageMetadata{"universal": "true"}
	if identity.RoomID != nil {
		metadata["room_id"] = *identity.RoomID
	}
	if identity.PersonEmail != nil {
		metadata["person_email"] = *identity.PersonEmail
	}
	if identity.PersonID != nil {
		metadata["person_id"] = *identity.PersonID
	}

	channel := platformName
	if candidate := firstPresent(identity.RoomID, identity.PersonEmail, identity.PersonID); candidate != nil {
		channel = *candidate
	}

	var from *core.Actor
	if sender := firstPresent(identity.PersonID, identity.PersonEmail); sender != nil {
		from = &core.Actor{ID: *sender, Kind: "user"}
	}

	return core.ChannelMessageEnvelope{
		ID:          platformName + "-" + channel,
		Tenant:      core.TenantCtx{Env: "default", Tenant: "default"},
		Channel:     channel,
		SessionID:   channel,
		From:        from,
		To:          []core.Destination{},
		Text:        core.StringPtr(text),
		Attachments: []core.Attachment{},
		Metadata:    metadata,
	}
}

func firstPresent(values ...*string) *string {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}
