package devkit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-messaging-providers/core"
)

func TestFakeTransport_ScriptsAndCapturesRequests(t *testing.T) {
	transport := NewFakeTransport(
		RespondJSON(429, `{"message":"slow down"}`),
		RespondJSON(200, `{"id":"m1"}`),
	)

	first, err := transport.Send(context.Background(), core.HTTPRequest{
		Method: "POST",
		URL:    "https://api.example.test/messages",
		Body:   []byte(`{"text":"hi"}`),
	})
	if err != nil {
		t.Fatalf("first fake call: %v", err)
	}
	if first.StatusCode != 429 {
		t.Fatalf("expected first scripted status 429, got %d", first.StatusCode)
	}

	for i := 0; i < 2; i++ {
		res, err := transport.Send(context.Background(), core.HTTPRequest{Method: "POST"})
		if err != nil || res.StatusCode != 200 {
			t.Fatalf("expected last script to repeat, got %d err=%v", res.StatusCode, err)
		}
	}

	requests := transport.Requests()
	if len(requests) != 3 || transport.Calls() != 3 {
		t.Fatalf("expected three captured requests, got %d", len(requests))
	}
	if string(requests[0].Body) != `{"text":"hi"}` {
		t.Fatalf("expected captured body, got %s", requests[0].Body)
	}
}

func TestFakeTransport_Fail(t *testing.T) {
	transport := NewFakeTransport(Fail("timeout", "deadline exceeded"))
	_, err := transport.Send(context.Background(), core.HTTPRequest{})
	var transportErr *core.TransportError
	if !errors.As(err, &transportErr) || transportErr.Message != "deadline exceeded" {
		t.Fatalf("expected scripted transport error, got %v", err)
	}
}

func TestMemorySecretStore(t *testing.T) {
	store := NewMemorySecretStore(map[string]string{"TOKEN": "abc"})
	store.FailOn("BROKEN", errors.New("offline"))

	value, found, err := store.Get(context.Background(), "TOKEN")
	if err != nil || !found || string(value) != "abc" {
		t.Fatalf("unexpected lookup %q found=%v err=%v", value, found, err)
	}
	if _, found, _ := store.Get(context.Background(), "MISSING"); found {
		t.Fatalf("expected missing key")
	}
	if _, _, err := store.Get(context.Background(), "BROKEN"); err == nil {
		t.Fatalf("expected configured failure")
	}
	if store.Lookups() != 3 {
		t.Fatalf("expected three lookups, got %d", store.Lookups())
	}
}

func TestHTTPInFixtureRoundTrip(t *testing.T) {
	raw := HTTPInFixture([]byte(`{"a":1}`), "X-Test", "yes")
	var in core.HTTPIn
	if err := json.Unmarshal(raw, &in); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if in.Header("x-test") != "yes" || in.Method != "POST" {
		t.Fatalf("unexpected fixture %+v", in)
	}
	body, err := base64.StdEncoding.DecodeString(in.BodyB64)
	if err != nil || string(body) != `{"a":1}` {
		t.Fatalf("expected encoded body, got %q err=%v", body, err)
	}
}

func TestValidateComponentConformance_RejectsNil(t *testing.T) {
	if err := ValidateComponentConformance(context.Background(), nil); err == nil {
		t.Fatalf("expected nil component to fail conformance")
	}
}
