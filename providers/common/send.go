// Package common holds the pipeline pieces shared by chat providers: input
// decoding, credential lookup, outbound dispatch, and the render_plan,
// encode, and send_payload operations.
package common

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-messaging-providers/core"
)

// SendInput is a decoded send request: the envelope plus the loosely typed
// object it was decoded from, which may carry config fields.
type SendInput struct {
	Raw      map[string]any
	Envelope core.ChannelMessageEnvelope
}

// DecodeSendInput parses input as a JSON object and decodes the envelope.
func DecodeSendInput(input []byte) (SendInput, error) {
	var parsed any
	if err := json.Unmarshal(input, &parsed); err != nil {
		return SendInput{}, core.InputError(fmt.Sprintf("invalid json: %v", err))
	}
	object, ok := parsed.(map[string]any)
	if !ok {
		return SendInput{}, core.InputError("invalid envelope: expected object")
	}
	var envelope core.ChannelMessageEnvelope
	if err := json.Unmarshal(input, &envelope); err != nil {
		return SendInput{}, core.InputError(fmt.Sprintf("invalid envelope: %v", err))
	}
	return SendInput{Raw: object, Envelope: envelope}, nil
}

// DecodeObject parses input as a loosely typed JSON object.
func DecodeObject(input []byte) (map[string]any, error) {
	var parsed any
	if err := json.Unmarshal(input, &parsed); err != nil {
		return nil, core.InputError(fmt.Sprintf("invalid json: %v", err))
	}
	object, ok := parsed.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return object, nil
}

// FetchToken reads the bot credential stored under key.
func FetchToken(ctx context.Context, secrets core.SecretStore, key string) (string, error) {
	if secrets == nil {
		return "", core.CredentialError("secret store error: secret store is not configured")
	}
	value, found, err := secrets.Get(ctx, key)
	if err != nil {
		return "", core.CredentialError("secret store error: " + core.ErrorMessage(err))
	}
	if !found {
		return "", core.CredentialError("missing secret: " + key)
	}
	if !utf8.Valid(value) {
		return "", core.CredentialError("access_token not utf-8")
	}
	return string(value), nil
}

// Dispatcher issues authenticated JSON requests to a platform API.
type Dispatcher struct {
	Platform  string
	Transport core.Transport
}

// PostJSON sends body with bearer auth. Failure messages include method,
// URL, and body for diagnosis; the token never appears in them.
func (d Dispatcher) PostJSON(ctx context.Context, url string, token string, body []byte) (core.HTTPResponse, error) {
	if d.Transport == nil {
		return core.HTTPResponse{}, core.TransportFailure(fmt.Sprintf(
			"transport error: transport is not configured (%s %s body=%s)", http.MethodPost, url, body,
		))
	}
	req := core.HTTPRequest{
		Method: http.MethodPost,
		URL:    url,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + token,
		},
		Body: body,
	}
	res, err := d.Transport.Send(ctx, req)
	if err != nil {
		return core.HTTPResponse{}, core.TransportFailure(fmt.Sprintf(
			"transport error: %s (%s %s body=%s)", core.ErrorMessage(err), req.Method, req.URL, body,
		))
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, core.TransportFailure(fmt.Sprintf(
			"%s returned status %d for %s %s body=%s", d.Platform, res.StatusCode, req.Method, req.URL, res.Body,
		)).WithMetadata(map[string]any{"status_code": res.StatusCode})
	}
	return res, nil
}

// ResponseID extracts a string id field from a JSON response body, falling
// back to placeholder.
func ResponseID(body []byte, field string, placeholder string) string {
	value := gjson.GetBytes(body, field)
	if value.Type == gjson.String {
		return value.Str
	}
	return placeholder
}

// ResponseValue returns the response body as JSON, or null when it is not
// valid JSON.
func ResponseValue(body []byte) json.RawMessage {
	if len(body) == 0 || !json.Valid(body) {
		return json.RawMessage("null")
	}
	return json.RawMessage(body)
}
