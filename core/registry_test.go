package core

import "testing"

func TestProviderRegistryRegisterAndList(t *testing.T) {
	registry := NewProviderRegistry()
	if err := registry.Register(&scriptedComponent{providerType: "messaging.b.bot"}); err != nil {
		t.Fatalf("register b: %v", err)
	}
	if err := registry.Register(&scriptedComponent{providerType: "messaging.a.bot"}); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := registry.Register(&scriptedComponent{providerType: "messaging.a.bot"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(&scriptedComponent{providerType: " "}); err == nil {
		t.Fatalf("expected blank provider type error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil provider error")
	}

	listed := registry.List()
	if len(listed) != 2 || listed[0].ProviderType() != "messaging.a.bot" {
		t.Fatalf("expected sorted providers, got %d", len(listed))
	}
	if _, ok := registry.Get(" messaging.b.bot "); !ok {
		t.Fatalf("expected trimmed lookup to resolve provider")
	}
	if _, ok := registry.Get(""); ok {
		t.Fatalf("expected blank lookup to miss")
	}
}
