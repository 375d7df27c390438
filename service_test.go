package messaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/devkit"
	"github.com/goliatone/go-messaging-providers/providers/slack"
	"github.com/goliatone/go-messaging-providers/providers/webex"
	"github.com/goliatone/go-messaging-providers/security"
)

func newTestService(t *testing.T, transport core.Transport, opts ...Option) *Service {
	t.Helper()
	secrets := devkit.NewMemorySecretStore(map[string]string{
		webex.DefaultTokenKey: "webex-token",
		slack.DefaultTokenKey: "xoxb-token",
	})
	svc, err := NewService(DefaultConfig(), core.Dependencies{Transport: transport, Secrets: secrets}, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_ListsAndDescribesBuiltinProviders(t *testing.T) {
	svc := newTestService(t, devkit.NewFakeTransport())
	ctx := context.Background()

	providers := svc.ListProviders(ctx)
	if strings.Join(providers, ",") != "messaging.slack.bot,messaging.webex.bot" {
		t.Fatalf("unexpected providers %v", providers)
	}
	manifest, err := svc.Describe(ctx, webex.ProviderType)
	if err != nil || manifest.ConfigSchemaRef == nil || *manifest.ConfigSchemaRef != webex.ConfigSchemaRef {
		t.Fatalf("unexpected manifest %+v err=%v", manifest, err)
	}
	status, err := svc.Healthcheck(ctx, slack.ProviderType)
	if err != nil || status != "ok" {
		t.Fatalf("unexpected healthcheck %q err=%v", status, err)
	}

	validation, err := svc.ValidateConfig(ctx, webex.ProviderType, []byte(`{"default_room_id":"R1"}`))
	if err != nil || !validation.OK || !strings.Contains(string(validation.Config), `"default_room_id":"R1"`) {
		t.Fatalf("unexpected validation %+v err=%v", validation, err)
	}
	rejected, err := svc.ValidateConfig(ctx, webex.ProviderType, []byte(`{"nope":1}`))
	if err != nil || rejected.OK || rejected.Error == "" {
		t.Fatalf("expected rejected config, got %+v err=%v", rejected, err)
	}
}

func TestService_UnknownProvider(t *testing.T) {
	svc := newTestService(t, devkit.NewFakeTransport())
	_, err := svc.Invoke(context.Background(), "messaging.teams.bot", core.OpSend, []byte(`{}`))
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorUnsupported || rich.Code != 404 {
		t.Fatalf("expected provider not registered error, got %v", err)
	}
	if _, err := svc.EnqueuePayload(context.Background(), "messaging.teams.bot", "", core.ProviderPayload{BodyB64: "e30="}); err == nil {
		t.Fatalf("expected enqueue to reject unknown provider")
	}
}

func TestService_InvokeRoutesByProviderType(t *testing.T) {
	transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"M1"}`))
	svc := newTestService(t, transport)

	out, err := svc.Invoke(context.Background(), webex.ProviderType, core.OpSend,
		[]byte(`{"text":"hello","to":[{"id":"Y2lzY29zcGFyazovL3VzL1JPT00vMQ","kind":"room"}]}`))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !core.ResultOK(out) || !strings.Contains(string(out), `"provider_message_id":"webex:M1"`) {
		t.Fatalf("unexpected send result %s", out)
	}
	if req := transport.Requests()[0]; req.URL != webex.DefaultAPIBaseURL+"/messages" {
		t.Fatalf("unexpected request url %s", req.URL)
	}
}

func TestService_EncodeEnqueueAndDispatch(t *testing.T) {
	transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"M2"}`))
	svc := newTestService(t, transport)
	ctx := context.Background()

	text := "queued hello"
	queued, err := svc.EncodeAndEnqueue(ctx, webex.ProviderType, "acme", core.EncodeIn{
		Message: core.ChannelMessageEnvelope{
			ID:   "m1",
			To:   []core.Destination{{ID: "person@example.com", Kind: "email"}},
			Text: &text,
		},
	})
	if err != nil {
		t.Fatalf("encode and enqueue: %v", err)
	}
	if queued.TenantID != "acme" || queued.Payload.Metadata["url"] != webex.DefaultAPIBaseURL+"/messages" {
		t.Fatalf("unexpected queued payload %+v", queued)
	}

	stats, err := svc.DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if stats.Claimed != 1 || stats.Delivered != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	body := string(transport.Requests()[0].Body)
	if body != `{"text":"queued hello","toPersonEmail":"person@example.com"}` {
		t.Fatalf("unexpected replayed body %s", body)
	}
}

func TestService_DispatchMarksFailedPayloads(t *testing.T) {
	store := core.NewMemoryPayloadOutbox()
	svc := newTestService(t, devkit.NewFakeTransport(devkit.RespondJSON(500, `{"message":"boom"}`)), WithOutboxStore(store))
	ctx := context.Background()

	envelope, _ := json.Marshal(map[string]any{"text": "hi", "to": []map[string]string{{"id": "R1", "kind": "room"}}})
	queued, err := svc.EnqueuePayload(ctx, webex.ProviderType, "", core.ProviderPayload{
		ContentType: "application/json",
		BodyB64:     base64.StdEncoding.EncodeToString(envelope),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	stats, err := svc.DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected non-retryable failure, got %+v", stats)
	}
	stored, _ := store.Get(queued.ID)
	if stored.Status != core.OutboxStatusFailed || !strings.Contains(stored.LastError, "webex returned status 500") {
		t.Fatalf("unexpected stored payload %+v", stored)
	}
}

func TestService_SendPayload(t *testing.T) {
	svc := newTestService(t, devkit.NewFakeTransport())
	result, err := svc.SendPayload(context.Background(), core.SendPayloadIn{
		ProviderType: slack.ProviderType,
		Payload:      core.ProviderPayload{BodyB64: "not base64!"},
	})
	if err != nil {
		t.Fatalf("send payload: %v", err)
	}
	if result.OK || result.Retryable || result.Message == nil {
		t.Fatalf("expected decode failure result, got %+v", result)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(map[string]any{
		"providers": []any{webex.ProviderType},
		"webex":     map[string]any{"token_key": "CUSTOM_TOKEN"},
		"outbox":    map[string]any{"batch_size": 5, "initial_backoff": time.Second},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Providers) != 1 || cfg.Webex.TokenKey != "CUSTOM_TOKEN" || cfg.Outbox.BatchSize != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Outbox.MaxAttempts != core.DefaultOutboxDispatcherConfig().MaxAttempts {
		t.Fatalf("expected default max attempts, got %d", cfg.Outbox.MaxAttempts)
	}

	if _, err := LoadConfig(map[string]any{"providers": []any{"messaging.teams.bot"}}); err == nil {
		t.Fatalf("expected unknown provider to be rejected")
	}

	svc, err := Setup(map[string]any{"providers": []any{slack.ProviderType}}, core.Dependencies{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if providers := svc.ListProviders(context.Background()); len(providers) != 1 || providers[0] != slack.ProviderType {
		t.Fatalf("unexpected providers %v", providers)
	}
}

func TestSetup_SealedConfigSecrets(t *testing.T) {
	cipher, err := security.NewAppKeyCipherFromString("app-key-material")
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	sealed, err := cipher.Seal([]byte("sealed-token"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	transport := devkit.NewFakeTransport(devkit.RespondJSON(200, `{"id":"M1"}`))
	svc, err := Setup(map[string]any{
		"providers": []any{webex.ProviderType},
		"secrets": map[string]any{
			"app_key": "app-key-material",
			"values":  map[string]any{webex.DefaultTokenKey: string(sealed)},
		},
	}, core.Dependencies{Transport: transport})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	out, err := svc.Invoke(context.Background(), webex.ProviderType, core.OpSend,
		[]byte(`{"text":"hi","to":[{"id":"R1","kind":"room"}]}`))
	if err != nil || !core.ResultOK(out) {
		t.Fatalf("expected send to succeed, got %s err=%v", out, err)
	}
	if got := transport.Requests()[0].Headers["Authorization"]; got != "Bearer sealed-token" {
		t.Fatalf("expected opened token in authorization header, got %q", got)
	}

	if _, err := LoadConfig(map[string]any{
		"secrets": map[string]any{"values": map[string]any{"K": string(sealed)}},
	}); err == nil {
		t.Fatalf("expected sealed value without app_key to be rejected")
	}
}
