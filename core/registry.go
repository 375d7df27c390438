package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderRegistry indexes components by provider type.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Component
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]Component)}
}

func (r *ProviderRegistry) Register(provider Component) error {
	if provider == nil {
		return fmt.Errorf("core: provider is nil")
	}
	providerType := strings.TrimSpace(provider.ProviderType())
	if providerType == "" {
		return fmt.Errorf("core: provider type is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[providerType]; exists {
		return fmt.Errorf("core: provider already registered: %s", providerType)
	}
	r.providers[providerType] = provider
	return nil
}

func (r *ProviderRegistry) Get(providerType string) (Component, bool) {
	providerType = strings.TrimSpace(providerType)
	if providerType == "" {
		return nil, false
	}
	r.mu.RLock()
	provider, ok := r.providers[providerType]
	r.mu.RUnlock()
	return provider, ok
}

func (r *ProviderRegistry) List() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.providers))
	for providerType := range r.providers {
		keys = append(keys, providerType)
	}
	sort.Strings(keys)
	providers := make([]Component, 0, len(keys))
	for _, providerType := range keys {
		providers = append(providers, r.providers[providerType])
	}
	return providers
}

// Registry is the lookup surface consumed by dispatchers and handlers.
type Registry interface {
	Get(providerType string) (Component, bool)
	List() []Component
}
