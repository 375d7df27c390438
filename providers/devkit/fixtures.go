package devkit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-messaging-providers/core"
)

// MemorySecretStore is a secret store fixture that counts lookups so tests
// can assert that a code path never touched credentials.
type MemorySecretStore struct {
	mu      sync.Mutex
	secrets map[string][]byte
	errs    map[string]error
	lookups int
}

func NewMemorySecretStore(secrets map[string]string) *MemorySecretStore {
	store := &MemorySecretStore{
		secrets: map[string][]byte{},
		errs:    map[string]error{},
	}
	for key, value := range secrets {
		store.secrets[key] = []byte(value)
	}
	return store
}

func (s *MemorySecretStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = append([]byte(nil), value...)
}

// FailOn makes lookups of key return err.
func (s *MemorySecretStore) FailOn(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[key] = err
}

func (s *MemorySecretStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if err, ok := s.errs[key]; ok {
		return nil, false, err
	}
	value, ok := s.secrets[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemorySecretStore) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

// HTTPInFixture builds an ingest_http input for body with the given
// headers, given as name/value pairs.
func HTTPInFixture(body []byte, headers ...string) []byte {
	in := core.HTTPIn{
		Method:  "POST",
		Path:    "/webhook",
		Headers: []core.Header{},
		BodyB64: base64.StdEncoding.EncodeToString(body),
	}
	for i := 0; i+1 < len(headers); i += 2 {
		in.Headers = append(in.Headers, core.Header{Name: headers[i], Value: headers[i+1]})
	}
	raw, _ := json.Marshal(in)
	return raw
}

// DecodeHTTPOut decodes an ingest_http result and its base64 body.
func DecodeHTTPOut(raw []byte) (core.HTTPOut, []byte, error) {
	var out core.HTTPOut
	if err := json.Unmarshal(raw, &out); err != nil {
		return core.HTTPOut{}, nil, err
	}
	body, err := base64.StdEncoding.DecodeString(out.BodyB64)
	if err != nil {
		return core.HTTPOut{}, nil, err
	}
	return out, body, nil
}

// SendPayloadFixture wraps message as an encoded payload for providerType.
func SendPayloadFixture(providerType string, message []byte) []byte {
	raw, _ := json.Marshal(core.SendPayloadIn{
		ProviderType: providerType,
		Payload: core.ProviderPayload{
			ContentType: "application/json",
			BodyB64:     base64.StdEncoding.EncodeToString(message),
			Metadata:    map[string]string{},
		},
	})
	return raw
}

var _ core.SecretStore = (*MemorySecretStore)(nil)
