package security

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-messaging-providers/core"
)

func TestAppKeyCipher_SealOpenRoundTrip(t *testing.T) {
	c, err := NewAppKeyCipherFromString("super-secret-test-key", WithKeyID("messaging-v1"), WithVersion(3))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	plaintext := []byte("token-value-123")
	sealed, err := c.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatalf("expected sealed payload to hide plaintext")
	}
	if !IsSealed(sealed) {
		t.Fatalf("expected sealed prefix")
	}
	opened, err := c.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("expected roundtrip plaintext; got %q", opened)
	}
}

func TestAppKeyCipher_RejectsKeyMismatch(t *testing.T) {
	issuer, _ := NewAppKeyCipherFromString("super-secret-test-key", WithKeyID("messaging-v1"))
	receiver, _ := NewAppKeyCipherFromString("super-secret-test-key", WithKeyID("messaging-v2"))
	sealed, err := issuer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := receiver.Open(sealed); err == nil {
		t.Fatalf("expected key id mismatch error")
	}
	if _, err := NewAppKeyCipher(nil); err == nil {
		t.Fatalf("expected empty key material error")
	}
}

func TestSealedSecretStoreOpensSealedValues(t *testing.T) {
	c, _ := NewAppKeyCipherFromString("app-key")
	sealed, _ := c.Seal([]byte("bot-token"))

	backend := NewStaticSecretStore(map[string]string{"PLAIN": "plain-token"})
	backend.Set("SEALED", sealed)
	store := NewSealedSecretStore(backend, c)

	value, found, err := store.Get(context.Background(), "SEALED")
	if err != nil || !found || string(value) != "bot-token" {
		t.Fatalf("expected opened sealed value, got %q found=%v err=%v", value, found, err)
	}
	value, found, err = store.Get(context.Background(), "PLAIN")
	if err != nil || !found || string(value) != "plain-token" {
		t.Fatalf("expected plain passthrough, got %q found=%v err=%v", value, found, err)
	}
	_, found, err = store.Get(context.Background(), "MISSING")
	if err != nil || found {
		t.Fatalf("expected missing secret, found=%v err=%v", found, err)
	}
}

func TestChainSecretStore(t *testing.T) {
	failing := core.SecretStoreFunc(func(context.Context, string) ([]byte, bool, error) {
		return nil, false, errors.New("backend down")
	})
	primary := NewStaticSecretStore(map[string]string{})
	fallback := NewStaticSecretStore(map[string]string{"WEBEX_BOT_TOKEN": "t"})

	chain := NewChainSecretStore(primary, fallback)
	value, found, err := chain.Get(context.Background(), "WEBEX_BOT_TOKEN")
	if err != nil || !found || string(value) != "t" {
		t.Fatalf("expected fallback secret, got %q found=%v err=%v", value, found, err)
	}

	strict := NewChainSecretStore(failing, fallback)
	if _, _, err := strict.Get(context.Background(), "WEBEX_BOT_TOKEN"); err == nil {
		t.Fatalf("expected strict chain to surface store error")
	}

	lenient := NewChainSecretStore(failing, fallback)
	lenient.SkipErrors = true
	if _, found, err := lenient.Get(context.Background(), "WEBEX_BOT_TOKEN"); err != nil || !found {
		t.Fatalf("expected lenient chain to skip failing store, found=%v err=%v", found, err)
	}
}
