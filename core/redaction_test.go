package core

import "testing"

func TestRedactSensitiveMapPreservesTraceabilityMetadata(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"provider_type": "messaging.webex.bot",
		"token_key":     "WEBEX_BOT_TOKEN",
		"access_token":  "secret-token",
		"headers":       map[string]string{"Authorization": "Bearer secret-token", "Content-Type": "application/json"},
		"nested":        map[string]any{"webhook_secret": "s", "op": "send"},
	})

	if redacted["provider_type"] != "messaging.webex.bot" {
		t.Fatalf("expected provider_type to remain visible, got %#v", redacted["provider_type"])
	}
	if redacted["token_key"] != "WEBEX_BOT_TOKEN" {
		t.Fatalf("expected token_key name to remain visible, got %#v", redacted["token_key"])
	}
	if redacted["access_token"] != RedactedValue {
		t.Fatalf("expected access_token to be redacted, got %#v", redacted["access_token"])
	}
	headers, ok := redacted["headers"].(map[string]string)
	if !ok {
		t.Fatalf("expected redacted header map")
	}
	if headers["Authorization"] != RedactedValue || headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected header redaction: %#v", headers)
	}
	nested := redacted["nested"].(map[string]any)
	if nested["webhook_secret"] != RedactedValue || nested["op"] != "send" {
		t.Fatalf("unexpected nested redaction: %#v", nested)
	}
}
