package security

import (
	"context"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
)

// StaticSecretStore serves secrets from an in-memory map.
type StaticSecretStore struct {
	mu      sync.RWMutex
	secrets map[string][]byte
}

func NewStaticSecretStore(secrets map[string]string) *StaticSecretStore {
	store := &StaticSecretStore{secrets: make(map[string][]byte, len(secrets))}
	for key, value := range secrets {
		store.secrets[key] = []byte(value)
	}
	return store
}

func (s *StaticSecretStore) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = append([]byte(nil), value...)
}

func (s *StaticSecretStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.secrets[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// SealedSecretStore opens sealed values from a backing store. Values
// without the sealed prefix are returned unchanged.
type SealedSecretStore struct {
	backend core.SecretStore
	cipher  *AppKeyCipher
}

func NewSealedSecretStore(backend core.SecretStore, cipher *AppKeyCipher) *SealedSecretStore {
	return &SealedSecretStore{backend: backend, cipher: cipher}
}

func (s *SealedSecretStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.backend == nil {
		return nil, false, securityError("sealed secret store is not configured")
	}
	value, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	if !IsSealed(value) {
		return value, true, nil
	}
	plaintext, err := s.cipher.Open(value)
	if err != nil {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "open sealed secret "+key).
			WithTextCode(core.ErrorCredential)
	}
	return plaintext, true, nil
}

// ChainSecretStore returns the first secret found across its stores.
// Store errors stop the lookup unless SkipErrors is set.
type ChainSecretStore struct {
	stores     []core.SecretStore
	SkipErrors bool
}

func NewChainSecretStore(stores ...core.SecretStore) *ChainSecretStore {
	chain := &ChainSecretStore{}
	for _, store := range stores {
		if store != nil {
			chain.stores = append(chain.stores, store)
		}
	}
	return chain
}

func (s *ChainSecretStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var lastErr error
	for _, store := range s.stores {
		value, found, err := store.Get(ctx, key)
		if err != nil {
			if !s.SkipErrors {
				return nil, false, err
			}
			lastErr = err
			continue
		}
		if found {
			return value, true, nil
		}
	}
	if lastErr != nil {
		return nil, false, lastErr
	}
	return nil, false, nil
}

func securityError(message string) *goerrors.Error {
	return goerrors.New("security: "+strings.TrimSpace(message), goerrors.CategoryInternal).
		WithTextCode(core.ErrorInternal)
}

var (
	_ core.SecretStore = (*StaticSecretStore)(nil)
	_ core.SecretStore = (*SealedSecretStore)(nil)
	_ core.SecretStore = (*ChainSecretStore)(nil)
)
