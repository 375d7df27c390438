package webhooks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
)

// Decode parses an ingest_http input and base64-decodes its body. method
// and path are required; the other fields default.
func Decode(input []byte) (core.HTTPIn, Request, error) {
	var in core.HTTPIn
	if err := json.Unmarshal(input, &in); err != nil {
		return core.HTTPIn{}, Request{}, core.InputError(fmt.Sprintf("invalid http input: %v", err))
	}
	var required struct {
		Method *string `json:"method"`
		Path   *string `json:"path"`
	}
	if err := json.Unmarshal(input, &required); err != nil {
		return core.HTTPIn{}, Request{}, core.InputError(fmt.Sprintf("invalid http input: %v", err))
	}
	switch {
	case required.Method == nil:
		return core.HTTPIn{}, Request{}, core.InputError("invalid http input: missing field method")
	case required.Path == nil:
		return core.HTTPIn{}, Request{}, core.InputError("invalid http input: missing field path")
	}
	body, err := base64.StdEncoding.DecodeString(in.BodyB64)
	if err != nil {
		return core.HTTPIn{}, Request{}, core.InputError(fmt.Sprintf("invalid body encoding: %v", err))
	}
	return in, Request{Headers: in.Headers, Body: body}, nil
}

// EventValue returns body when it is valid JSON and null otherwise.
func EventValue(body []byte) json.RawMessage {
	if len(body) == 0 || !json.Valid(body) {
		return json.RawMessage("null")
	}
	return json.RawMessage(body)
}

// ErrorOut is an HTTPOut carrying a plain text, base64 encoded message.
func ErrorOut(status int, message string) core.HTTPOut {
	return core.HTTPOut{
		Status:  status,
		Headers: []core.Header{},
		BodyB64: base64.StdEncoding.EncodeToString([]byte(message)),
		Events:  []core.ChannelMessageEnvelope{},
	}
}

// ErrorOutFrom maps err to an HTTPOut using the rich error code, 400 when
// none is set.
func ErrorOutFrom(err error) core.HTTPOut {
	status := 400
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil && richErr.Code >= 400 {
		status = richErr.Code
	}
	return ErrorOut(status, core.ErrorMessage(err))
}

// AcceptedOut is the 200 response echoing the decoded event.
func AcceptedOut(body []byte, events ...core.ChannelMessageEnvelope) core.HTTPOut {
	payload := core.MarshalResult(map[string]any{
		"ok":    true,
		"event": EventValue(body),
	})
	if events == nil {
		events = []core.ChannelMessageEnvelope{}
	}
	return core.HTTPOut{
		Status:  200,
		Headers: []core.Header{},
		BodyB64: base64.StdEncoding.EncodeToString(payload),
		Events:  events,
	}
}

// RawOut is a 200 response with a raw body and no events, used for
// platform handshakes.
func RawOut(contentType string, body []byte) core.HTTPOut {
	return core.HTTPOut{
		Status:  200,
		Headers: []core.Header{{Name: "Content-Type", Value: contentType}},
		BodyB64: base64.StdEncoding.EncodeToString(body),
		Events:  []core.ChannelMessageEnvelope{},
	}
}
