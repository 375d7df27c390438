package webex

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/devkit"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

func newTestProvider(t *testing.T, transport core.Transport, secrets core.SecretStore) *Provider {
	t.Helper()
	provider, err := New(Config{}, core.Dependencies{Transport: transport, Secrets: secrets})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func decodeResult(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode result %s: %v", raw, err)
	}
	return out
}

func TestNewAndLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(map[string]any{"token_key": "OTHER_TOKEN"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TokenKey != "OTHER_TOKEN" || cfg.APIBaseURL != DefaultAPIBaseURL || cfg.WebhookSecretKey != DefaultWebhookSecretKey {
		t.Fatalf("expected defaults to fill config, got %+v", cfg)
	}
	if _, err := LoadConfig(map[string]any{"api_base_url": "ftp://nope"}); err == nil {
		t.Fatalf("expected invalid api base to be rejected")
	}
	provider := newTestProvider(t, nil, nil)
	if provider.ProviderType() != ProviderType {
		t.Fatalf("unexpected provider type %q", provider.ProviderType())
	}
}

func TestDescribeAndHealthcheck(t *testing.T) {
	provider := newTestProvider(t, nil, nil)

	var manifest core.ProviderManifest
	if err := json.Unmarshal(provider.Describe(), &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifest.ProviderType != ProviderType || len(manifest.Ops) != 6 {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if manifest.ConfigSchemaRef == nil || *manifest.ConfigSchemaRef != ConfigSchemaRef || manifest.StateSchemaRef != nil {
		t.Fatalf("unexpected schema refs %+v", manifest)
	}
	if !strings.Contains(string(provider.Describe()), `"state_schema_ref":null`) {
		t.Fatalf("expected explicit null state schema ref")
	}
	if string(provider.Healthcheck()) != `{"status":"ok"}` {
		t.Fatalf("unexpected healthcheck %s", provider.Healthcheck())
	}
	if err := devkit.ValidateComponentConformance(context.Background(), provider); err != nil {
		t.Fatalf("conformance: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	provider := newTestProvider(t, nil, nil)

	out := provider.ValidateConfig([]byte(`{"default_room_id":"room"}`))
	if string(out) != `{"config":{"api_base_url":"https://webexapis.com/v1","default_room_id":"room"},"ok":true}` {
		t.Fatalf("unexpected validate output %s", out)
	}
	out = provider.ValidateConfig([]byte(`{}`))
	if !strings.Contains(string(out), `"default_room_id":null`) {
		t.Fatalf("expected null default room, got %s", out)
	}
	out = provider.ValidateConfig([]byte(`{"default_room_id":"k","unexpected":true}`))
	if core.ResultOK(out) || !strings.HasPrefix(core.ResultMessage(out), "invalid config: ") {
		t.Fatalf("expected unknown field rejection, got %s", out)
	}
	out = provider.ValidateConfig([]byte(`{"api_base_url":5}`))
	if core.ResultOK(out) {
		t.Fatalf("expected type rejection, got %s", out)
	}
}

func TestSendToEmailRecipient(t *testing.T) {
	transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"msg-1"}`))
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "bot-token"})
	provider := newTestProvider(t, transport, secrets)

	out := provider.Invoke(context.Background(), core.OpSend, []byte(`{"text":" hello ","to":[{"id":"a@b.c"}]}`))
	result := decodeResult(t, out)
	if result["ok"] != true || result["status"] != "sent" || result["message_id"] != "msg-1" {
		t.Fatalf("unexpected send result %s", out)
	}
	if result["provider_message_id"] != "webex:msg-1" || result["provider_type"] != ProviderType {
		t.Fatalf("unexpected ids %s", out)
	}

	requests := transport.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.Method != "POST" || req.URL != "https://webexapis.com/v1/messages" {
		t.Fatalf("unexpected request target %s %s", req.Method, req.URL)
	}
	if req.Headers["Authorization"] != "Bearer bot-token" || req.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers %+v", req.Headers)
	}
	if string(req.Body) != `{"text":"hello","toPersonEmail":"a@b.c"}` {
		t.Fatalf("unexpected body %s", req.Body)
	}
}

func TestSendDestinationShapes(t *testing.T) {
	cases := []struct {
		name  string
		input string
		body  string
		url   string
	}{
		{
			name:  "explicit room",
			input: `{"text":"hi","to":[{"id":"R1","kind":"room"}]}`,
			body:  `{"text":"hi","roomId":"R1"}`,
		},
		{
			name:  "inferred room marker",
			input: `{"text":"hi","to":[{"id":"Y2lzY29zcGFyazovL3VzL1JPT00v/ROOM/abc"}]}`,
			body:  `{"text":"hi","roomId":"Y2lzY29zcGFyazovL3VzL1JPT00v/ROOM/abc"}`,
		},
		{
			name:  "person id kind",
			input: `{"text":"hi","to":[{"id":"P1","kind":"personId"}]}`,
			body:  `{"text":"hi","toPersonId":"P1"}`,
		},
		{
			name:  "user kind",
			input: `{"text":"hi","to":[{"id":"P1","kind":"user"}]}`,
			body:  `{"text":"hi","toPersonId":"P1"}`,
		},
		{
			name:  "blank recipient skipped for default room",
			input: `{"text":"hi","to":[{"id":"  "}],"default_room_id":"DEF"}`,
			body:  `{"text":"hi","roomId":"DEF"}`,
		},
		{
			name:  "metadata default room",
			input: `{"text":"hi","metadata":{"default_room_id":"META"}}`,
			body:  `{"text":"hi","roomId":"META"}`,
		},
		{
			name:  "explicit config wins",
			input: `{"text":"hi","default_room_id":"TOP","config":{"default_room_id":"CFG","api_base_url":"https://proxy.test/v1"}}`,
			body:  `{"text":"hi","roomId":"CFG"}`,
			url:   "https://proxy.test/v1/messages",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"m"}`))
			secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "t"})
			provider := newTestProvider(t, transport, secrets)

			out := provider.Invoke(context.Background(), core.OpSend, []byte(tc.input))
			if !core.ResultOK(out) {
				t.Fatalf("expected ok, got %s", out)
			}
			req := transport.Requests()[0]
			if string(req.Body) != tc.body {
				t.Fatalf("expected body %s, got %s", tc.body, req.Body)
			}
			if tc.url != "" && req.URL != tc.url {
				t.Fatalf("expected url %s, got %s", tc.url, req.URL)
			}
		})
	}
}

func TestSendValidationFailuresSkipTransport(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "invalid json", input: `{`, want: "invalid json: "},
		{name: "null envelope", input: `null`, want: "invalid envelope: "},
		{name: "attachments", input: `{"text":"hi","attachments":[{"mime_type":"image/png","url":"https://x"}]}`, want: "attachments not supported"},
		{name: "blank text", input: `{"text":"   ","to":[{"id":"a@b.c"}]}`, want: "text required"},
		{name: "missing text", input: `{"to":[{"id":"a@b.c"}]}`, want: "text required"},
		{name: "unknown kind", input: `{"text":"hi","to":[{"id":"x","kind":"channel"}]}`, want: "unsupported destination kind: channel"},
		{name: "bad config", input: `{"text":"hi","config":{"nope":"x"}}`, want: "invalid config: "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := devkit.NewFakeTransport()
			secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "t"})
			provider := newTestProvider(t, transport, secrets)

			out := provider.Invoke(context.Background(), core.OpSend, []byte(tc.input))
			if core.ResultOK(out) || !strings.HasPrefix(core.ResultMessage(out), tc.want) {
				t.Fatalf("expected %q, got %s", tc.want, out)
			}
			if transport.Calls() != 0 || secrets.Lookups() != 0 {
				t.Fatalf("expected no transport or secret access, got %d/%d", transport.Calls(), secrets.Lookups())
			}
		})
	}
}

func TestSendDestinationRequired(t *testing.T) {
	transport := devkit.NewFakeTransport()
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "t"})
	provider := newTestProvider(t, transport, secrets)

	out := provider.Invoke(context.Background(), core.OpSend, []byte(`{"text":"hi","to":[]}`))
	want := `{"message":"to field  required, either of kind person or room. person will be used if kind is not set.","ok":false,"retryable":false}`
	if string(out) != want {
		t.Fatalf("expected fixed destination result, got %s", out)
	}
	if transport.Calls() != 0 || secrets.Lookups() != 0 {
		t.Fatalf("expected no side effects")
	}
}

func TestSendCredentialFailures(t *testing.T) {
	input := []byte(`{"text":"hi","to":[{"id":"a@b.c"}]}`)

	missing := newTestProvider(t, devkit.NewFakeTransport(), devkit.NewMemorySecretStore(nil))
	out := missing.Invoke(context.Background(), core.OpSend, input)
	if core.ResultMessage(out) != "missing secret: WEBEX_BOT_TOKEN" {
		t.Fatalf("unexpected missing secret result %s", out)
	}

	binary := devkit.NewMemorySecretStore(nil)
	binary.Put(DefaultTokenKey, []byte{0xff, 0xfe, 0xfd})
	out = newTestProvider(t, devkit.NewFakeTransport(), binary).Invoke(context.Background(), core.OpSend, input)
	if core.ResultMessage(out) != "access_token not utf-8" {
		t.Fatalf("unexpected utf-8 result %s", out)
	}

	broken := devkit.NewMemorySecretStore(nil)
	broken.FailOn(DefaultTokenKey, errors.New("vault sealed"))
	out = newTestProvider(t, devkit.NewFakeTransport(), broken).Invoke(context.Background(), core.OpSend, input)
	if core.ResultMessage(out) != "secret store error: vault sealed" {
		t.Fatalf("unexpected store error result %s", out)
	}
}

func TestSendTransportFailures(t *testing.T) {
	input := []byte(`{"text":"hi","to":[{"id":"a@b.c"}]}`)
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "very-secret-token"})

	failing := newTestProvider(t, devkit.NewFakeTransport(devkit.Fail("connect", "connection refused")), secrets)
	out := failing.Invoke(context.Background(), core.OpSend, input)
	want := `transport error: connection refused (POST https://webexapis.com/v1/messages body={"text":"hi","toPersonEmail":"a@b.c"})`
	if core.ResultMessage(out) != want {
		t.Fatalf("expected %q, got %q", want, core.ResultMessage(out))
	}

	rejected := newTestProvider(t, devkit.NewFakeTransport(devkit.RespondJSON(401, `{"message":"unauthorized"}`)), secrets)
	out = rejected.Invoke(context.Background(), core.OpSend, input)
	want = `webex returned status 401 for POST https://webexapis.com/v1/messages body={"message":"unauthorized"}`
	if core.ResultMessage(out) != want {
		t.Fatalf("expected %q, got %q", want, core.ResultMessage(out))
	}
	if strings.Contains(string(out), "very-secret-token") {
		t.Fatalf("token leaked into result")
	}
}

func TestSendPlaceholderMessageID(t *testing.T) {
	transport := devkit.NewFakeTransport(devkit.TransportScript{Response: core.HTTPResponse{StatusCode: 204}})
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "t"})
	provider := newTestProvider(t, transport, secrets)

	result := decodeResult(t, provider.Invoke(context.Background(), core.OpSend, []byte(`{"text":"hi","to":[{"id":"a@b.c"}]}`)))
	if result["message_id"] != "webex-message" || result["provider_message_id"] != "webex:webex-message" {
		t.Fatalf("expected placeholder ids, got %+v", result)
	}
	if value, ok := result["response"]; !ok || value != nil {
		t.Fatalf("expected null response, got %+v", result)
	}
}

func TestReply(t *testing.T) {
	transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"r-1"}`))
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "t"})
	provider := newTestProvider(t, transport, secrets)

	out := provider.Invoke(context.Background(), core.OpReply, []byte(`{"text":"**ack**","thread_id":"parent-1"}`))
	result := decodeResult(t, out)
	if result["status"] != "replied" || result["message_id"] != "r-1" || result["provider_message_id"] != "webex:r-1" {
		t.Fatalf("unexpected reply result %s", out)
	}
	if body := string(transport.Requests()[0].Body); body != `{"parentId":"parent-1","markdown":"**ack**"}` {
		t.Fatalf("unexpected reply body %s", body)
	}

	cases := []struct {
		input string
		want  string
	}{
		{input: `{"thread_id":"p"}`, want: "text required"},
		{input: `{"text":"  ","thread_id":"p"}`, want: "text required"},
		{input: `{"text":"hi"}`, want: "reply_to_id or thread_id required"},
		{input: `{"text":"hi","reply_to_id":""}`, want: "reply_to_id or thread_id required"},
		{input: `{`, want: "invalid json: "},
		{input: `{"text":"hi","thread_id":"p","config":{"bad":1}}`, want: "invalid config: "},
	}
	for _, tc := range cases {
		out := provider.Invoke(context.Background(), core.OpReply, []byte(tc.input))
		if core.ResultOK(out) || !strings.HasPrefix(core.ResultMessage(out), tc.want) {
			t.Fatalf("input %s: expected %q, got %s", tc.input, tc.want, out)
		}
	}

	empty := newTestProvider(t, devkit.NewFakeTransport(), devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: ""}))
	out = empty.Invoke(context.Background(), core.OpReply, []byte(`{"text":"hi","reply_to_id":"p"}`))
	if core.ResultMessage(out) != "access token empty" {
		t.Fatalf("expected empty token failure, got %s", out)
	}
}

func TestUnsupportedOp(t *testing.T) {
	provider := newTestProvider(t, nil, nil)
	out := provider.Invoke(context.Background(), "delete", []byte(`{}`))
	if string(out) != `{"error":"unsupported op: delete","ok":false}` {
		t.Fatalf("unexpected result %s", out)
	}
}

func TestIngestHTTP(t *testing.T) {
	provider := newTestProvider(t, nil, devkit.NewMemorySecretStore(nil))

	body := []byte(`{"roomId":"R1","text":"hello","personEmail":"x@y.z"}`)
	out, decoded, err := devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP, devkit.HTTPInFixture(body)))
	if err != nil {
		t.Fatalf("decode http out: %v", err)
	}
	if out.Status != 200 || len(out.Events) != 1 {
		t.Fatalf("unexpected http out %+v", out)
	}
	if string(decoded) != `{"event":{"roomId":"R1","text":"hello","personEmail":"x@y.z"},"ok":true}` {
		t.Fatalf("expected verbatim event, got %s", decoded)
	}
	event := out.Events[0]
	if event.ID != "webex-R1" || event.Channel != "R1" || event.SessionID != "R1" || event.MessageText() != "hello" {
		t.Fatalf("unexpected envelope %+v", event)
	}
	if event.Metadata["universal"] != "true" || event.Metadata["room_id"] != "R1" || event.From != nil {
		t.Fatalf("unexpected envelope metadata %+v from=%+v", event.Metadata, event.From)
	}
	if event.Tenant.Env != "default" || event.Tenant.Tenant != "default" {
		t.Fatalf("unexpected tenant %+v", event.Tenant)
	}
}

func TestIngestHTTPDestinationPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		channel string
		meta    map[string]string
		from    string
	}{
		{
			name:    "legacy personId fills both slots",
			body:    `{"personId":"P1","markdown":"hi"}`,
			channel: "P1",
			meta:    map[string]string{"person_email": "P1", "person_id": "P1"},
			from:    "P1",
		},
		{
			name:    "explicit person fields",
			body:    `{"toPersonEmail":"a@b.c","toPersonId":"P2"}`,
			channel: "a@b.c",
			meta:    map[string]string{"person_email": "a@b.c", "person_id": "P2"},
			from:    "P2",
		},
		{
			name:    "to object room falls back to config room",
			body:    `{"to":{"kind":"room"},"config":{"default_room_id":"CFG"}}`,
			channel: "CFG",
			meta:    map[string]string{"room_id": "CFG"},
		},
		{
			name:    "to object person id",
			body:    `{"to":{"kind":"person_id","id":"P3"}}`,
			channel: "P3",
			meta:    map[string]string{"person_id": "P3"},
			from:    "P3",
		},
		{
			name:    "to object unknown kind is email",
			body:    `{"to":{"kind":"other","id":"u@v.w"}}`,
			channel: "u@v.w",
			meta:    map[string]string{"person_email": "u@v.w"},
			from:    "u@v.w",
		},
		{
			name:    "to object without kind uses config room",
			body:    `{"to":{"id":"x@y"},"config":{"default_room_id":"CFG"}}`,
			channel: "CFG",
			meta:    map[string]string{"room_id": "CFG"},
		},
		{
			name:    "to object without kind or config room",
			body:    `{"to":{"id":"x@y"}}`,
			channel: "webex",
			meta:    map[string]string{},
		},
		{
			name:    "to object user kind is email",
			body:    `{"to":{"kind":"user","id":"u1"}}`,
			channel: "u1",
			meta:    map[string]string{"person_email": "u1"},
			from:    "u1",
		},
		{
			name:    "empty roomId is kept",
			body:    `{"roomId":"","config":{"default_room_id":"CFG"}}`,
			channel: "",
			meta:    map[string]string{"room_id": ""},
		},
		{
			name:    "config default room",
			body:    `{"config":{"default_room_id":"CFG"}}`,
			channel: "CFG",
			meta:    map[string]string{"room_id": "CFG"},
		},
		{
			name:    "nothing identifiable",
			body:    `not json`,
			channel: "webex",
			meta:    map[string]string{},
		},
	}
	provider := newTestProvider(t, nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP, devkit.HTTPInFixture([]byte(tc.body))))
			if err != nil || out.Status != 200 || len(out.Events) != 1 {
				t.Fatalf("unexpected out %+v err=%v", out, err)
			}
			event := out.Events[0]
			if event.Channel != tc.channel || event.ID != "webex-"+tc.channel {
				t.Fatalf("expected channel %s, got %+v", tc.channel, event)
			}
			for key, value := range tc.meta {
				if event.Metadata[key] != value {
					t.Fatalf("expected metadata %s=%s, got %+v", key, value, event.Metadata)
				}
			}
			if len(event.Metadata) != len(tc.meta)+1 {
				t.Fatalf("unexpected metadata keys %+v", event.Metadata)
			}
			if tc.from == "" && event.From != nil {
				t.Fatalf("expected no sender, got %+v", event.From)
			}
			if tc.from != "" && (event.From == nil || event.From.ID != tc.from || event.From.Kind != "user") {
				t.Fatalf("expected sender %s, got %+v", tc.from, event.From)
			}
		})
	}
}

func TestIngestHTTPDecodeFailures(t *testing.T) {
	provider := newTestProvider(t, nil, nil)

	out, body, err := devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP, []byte(`{"method":1}`)))
	if err != nil || out.Status != 400 || !strings.HasPrefix(string(body), "invalid http input: ") {
		t.Fatalf("expected invalid http input, got %+v %s err=%v", out, body, err)
	}
	out, body, err = devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP, []byte(`{"method":"POST","path":"/","headers":[],"body_b64":"%%%"}`)))
	if err != nil || out.Status != 400 || !strings.HasPrefix(string(body), "invalid body encoding: ") {
		t.Fatalf("expected invalid body encoding, got %+v %s err=%v", out, body, err)
	}
	if len(out.Events) != 0 {
		t.Fatalf("expected no events on failure")
	}
}

func TestIngestHTTPSignature(t *testing.T) {
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultWebhookSecretKey: "hook-secret"})
	provider := newTestProvider(t, nil, secrets)
	body := []byte(`{"roomId":"R1","text":"signed"}`)

	signature := webhooks.Sign("sha1", "hex", "hook-secret", body)
	out, _, err := devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP,
		devkit.HTTPInFixture(body, "X-Spark-Signature", signature)))
	if err != nil || out.Status != 200 {
		t.Fatalf("expected signed request to pass, got %+v err=%v", out, err)
	}

	out, _, err = devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP,
		devkit.HTTPInFixture(body, "X-Spark-Signature", "deadbeef")))
	if err != nil || out.Status != 401 || len(out.Events) != 0 {
		t.Fatalf("expected signature rejection, got %+v err=%v", out, err)
	}
	out, _, _ = devkit.DecodeHTTPOut(provider.Invoke(context.Background(), core.OpIngestHTTP, devkit.HTTPInFixture(body)))
	if out.Status != 401 {
		t.Fatalf("expected missing signature rejection, got %+v", out)
	}
}

func TestEncodeThenSendPayload(t *testing.T) {
	transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"m-9"}`))
	secrets := devkit.NewMemorySecretStore(map[string]string{DefaultTokenKey: "t"})
	provider := newTestProvider(t, transport, secrets)

	encoded := provider.Invoke(context.Background(), core.OpEncode, []byte(`{"message":{"id":"1","text":"queued","to":[{"id":"R1","kind":"room"}]},"plan":{"message":{}}}`))
	var encodeResult struct {
		OK      bool                 `json:"ok"`
		Payload core.ProviderPayload `json:"payload"`
	}
	if err := json.Unmarshal(encoded, &encodeResult); err != nil || !encodeResult.OK {
		t.Fatalf("unexpected encode result %s err=%v", encoded, err)
	}
	if encodeResult.Payload.Metadata["url"] != "https://webexapis.com/v1/messages" || encodeResult.Payload.Metadata["method"] != "POST" {
		t.Fatalf("unexpected payload metadata %+v", encodeResult.Payload.Metadata)
	}

	input, _ := json.Marshal(core.SendPayloadIn{ProviderType: ProviderType, Payload: encodeResult.Payload})
	out := provider.Invoke(context.Background(), core.OpSendPayload, input)
	if string(out) != `{"ok":true,"retryable":false}` {
		t.Fatalf("unexpected send_payload result %s", out)
	}
	if body := string(transport.Requests()[0].Body); body != `{"text":"queued","roomId":"R1"}` {
		t.Fatalf("unexpected replayed body %s", body)
	}

	out = provider.Invoke(context.Background(), core.OpSendPayload, devkit.SendPayloadFixture(ProviderType, []byte(`{"text":"hi"}`)))
	var result core.SendPayloadResult
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.OK || result.Retryable || result.Message == nil || *result.Message != core.DestinationRequiredMessage {
		t.Fatalf("expected destination failure to surface, got %s", out)
	}

	out = provider.Invoke(context.Background(), core.OpSendPayload, devkit.SendPayloadFixture(ProviderType, []byte(`not json`)))
	if err := json.Unmarshal(out, &result); err != nil || result.Message == nil || !strings.HasPrefix(*result.Message, "invalid envelope: ") {
		t.Fatalf("expected invalid envelope for non-json payload, got %s", out)
	}
}

func TestRenderPlanPlaceholder(t *testing.T) {
	provider := newTestProvider(t, nil, nil)
	out := provider.Invoke(context.Background(), core.OpRenderPlan, []byte(`{"message":{},"metadata":null}`))
	if !core.ResultOK(out) || !strings.Contains(string(out), `webex message`) {
		t.Fatalf("expected placeholder summary, got %s", out)
	}
}

func TestReplyBodyShape(t *testing.T) {
	body, err := replyBody("PARENT", "**hi** \"there\"")
	if err != nil {
		t.Fatalf("reply body: %v", err)
	}
	if string(body) != `{"parentId":"PARENT","markdown":"**hi** \"there\""}` {
		t.Fatalf("unexpected reply body %s", body)
	}
}
