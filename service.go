// Package messaging hosts the chat providers behind one service: it routes
// operations by provider type, exposes the lifecycle calls and replays
// encoded payloads through a durable outbox.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/inbound"
	"github.com/goliatone/go-messaging-providers/ratelimit"
	sqlstore "github.com/goliatone/go-messaging-providers/store/sql"
	"github.com/goliatone/go-messaging-providers/transport"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

type Option func(*Service)

// WithOutboxStore replaces the in-memory outbox, e.g. with the bun store.
func WithOutboxStore(store core.PayloadOutboxStore) Option {
	return func(s *Service) {
		if store != nil {
			s.outbox = store
		}
	}
}

// WithRateLimitStateStore shares endpoint throttling state, e.g. between
// instances behind one database.
func WithRateLimitStateStore(store ratelimit.StateStore) Option {
	return func(s *Service) {
		if store != nil {
			s.rateLimitState = store
		}
	}
}

// WithSQLStores backs the outbox and the rate limit state with db. Stores
// passed through WithOutboxStore or WithRateLimitStateStore take precedence.
func WithSQLStores(db *bun.DB) Option {
	return func(s *Service) {
		s.sqlDB = db
	}
}

// WithProviders registers extra components next to the built-in ones.
func WithProviders(components ...core.Component) Option {
	return func(s *Service) {
		s.extra = append(s.extra, components...)
	}
}

type Service struct {
	config         Config
	deps           core.Dependencies
	registry       *core.ProviderRegistry
	outbox         core.PayloadOutboxStore
	rateLimitState ratelimit.StateStore
	sqlDB          *bun.DB
	dispatcher     *core.OutboxDispatcher
	observer       core.Observer
	extra          []core.Component
}

// NewService builds the built-in providers over deps. A nil Transport
// defaults to the net/http transport; it is wrapped with endpoint
// throttling when cfg.RateLimit is enabled.
func NewService(cfg Config, deps core.Dependencies, opts ...Option) (*Service, error) {
	deps = core.ResolveDependencies("messaging", deps)
	secrets, err := cfg.Secrets.store(deps.Secrets)
	if err != nil {
		return nil, err
	}
	deps.Secrets = secrets
	if deps.Transport == nil {
		deps.Transport = transport.NewHTTPTransport(transport.WithLogger(deps.Logger))
	}
	svc := &Service{
		config:   cfg,
		deps:     deps,
		observer: core.NewObserver(deps.Logger, deps.MetricsRecorder),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	if err := svc.resolveStores(); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Enabled {
		state, err := svc.rateLimitStateStore()
		if err != nil {
			return nil, err
		}
		policy := ratelimit.NewAdaptivePolicy(state)
		if cfg.RateLimit.InitialBackoff > 0 {
			policy.InitialBackoff = cfg.RateLimit.InitialBackoff
		}
		if cfg.RateLimit.MaxBackoff > 0 {
			policy.MaxBackoff = cfg.RateLimit.MaxBackoff
		}
		deps.Transport = ratelimit.NewTransport(deps.Transport, policy, ratelimit.WithLogger(deps.Logger))
		svc.deps = deps
	}

	components, err := BuiltinProviders(cfg, deps)
	if err != nil {
		return nil, err
	}
	registry, err := NewRegistry(append(components, svc.extra...)...)
	if err != nil {
		return nil, err
	}
	svc.registry = registry

	dispatcher, err := core.NewOutboxDispatcher(svc.outbox, registry, cfg.Outbox.dispatcherConfig(), deps)
	if err != nil {
		return nil, err
	}
	svc.dispatcher = dispatcher
	return svc, nil
}

func (s *Service) resolveStores() error {
	if s.sqlDB != nil {
		if s.outbox == nil {
			outbox, err := sqlstore.NewPayloadOutboxStore(s.sqlDB)
			if err != nil {
				return err
			}
			s.outbox = outbox
		}
		if s.rateLimitState == nil {
			state, err := sqlstore.NewRateLimitStateStore(s.sqlDB)
			if err != nil {
				return err
			}
			s.rateLimitState = state
		}
	}
	if s.outbox == nil {
		s.outbox = core.NewMemoryPayloadOutbox()
	}
	return nil
}

// rateLimitStateStore keeps memory state local; only shared stores are
// cached.
func (s *Service) rateLimitStateStore() (ratelimit.StateStore, error) {
	if s.rateLimitState == nil {
		s.rateLimitState = ratelimit.NewMemoryStateStore()
		return s.rateLimitState, nil
	}
	if s.config.RateLimit.CacheTTL <= 0 {
		return s.rateLimitState, nil
	}
	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = s.config.RateLimit.CacheTTL
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("messaging: rate limit cache: %w", err)
	}
	cached, err := sqlstore.NewCachedRateLimitStateStore(s.rateLimitState, cacheService)
	if err != nil {
		return nil, err
	}
	s.rateLimitState = cached
	return cached, nil
}

// NewInboundDispatcher builds a webhook dispatcher over the service
// registry, guarded by the configured gateway token.
func (s *Service) NewInboundDispatcher(handler inbound.EventHandler, opts ...inbound.Option) (*inbound.Dispatcher, error) {
	if s == nil || s.registry == nil {
		return nil, fmt.Errorf("messaging: service is not configured")
	}
	base := []inbound.Option{
		inbound.WithDependencies(s.deps),
		inbound.WithClaimTTL(s.config.Inbound.ClaimTTL),
	}
	if key := strings.TrimSpace(s.config.Inbound.TokenKey); key != "" {
		header := strings.TrimSpace(s.config.Inbound.TokenHeader)
		if header == "" {
			header = "X-Webhook-Token"
		}
		base = append(base, inbound.WithGatewayTemplate(webhooks.NewHeaderTokenTemplate("", key, header)))
	}
	return inbound.NewDispatcher(s.registry, handler, append(base, opts...)...)
}

// Setup loads raw configuration and builds the service.
func Setup(raw map[string]any, deps core.Dependencies, opts ...Option) (*Service, error) {
	cfg, err := LoadConfig(raw)
	if err != nil {
		return nil, err
	}
	return NewService(cfg, deps, opts...)
}

func (s *Service) Registry() *core.ProviderRegistry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Outbox() core.PayloadOutboxStore {
	if s == nil {
		return nil
	}
	return s.outbox
}

// Invoke runs op on the provider. Operation failures are carried in the
// returned JSON; only an unknown provider is reported as an error.
func (s *Service) Invoke(ctx context.Context, providerType string, op string, input []byte) ([]byte, error) {
	component, err := s.component(providerType)
	if err != nil {
		return nil, err
	}
	return component.Invoke(ctx, op, input), nil
}

func (s *Service) SendPayload(ctx context.Context, req core.SendPayloadIn) (core.SendPayloadResult, error) {
	component, err := s.component(req.ProviderType)
	if err != nil {
		return core.SendPayloadResult{}, err
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return core.SendPayloadResult{}, core.InputError("encode send_payload input: " + err.Error())
	}
	var result core.SendPayloadResult
	if err := json.Unmarshal(component.Invoke(ctx, core.OpSendPayload, raw), &result); err != nil {
		return core.SendPayloadResult{}, core.InputError("decode send_payload result: " + err.Error())
	}
	return result, nil
}

func (s *Service) Describe(_ context.Context, providerType string) (core.ProviderManifest, error) {
	component, err := s.component(providerType)
	if err != nil {
		return core.ProviderManifest{}, err
	}
	var manifest core.ProviderManifest
	if err := json.Unmarshal(component.Describe(), &manifest); err != nil {
		return core.ProviderManifest{}, core.InputError("decode manifest: " + err.Error())
	}
	return manifest, nil
}

func (s *Service) ValidateConfig(_ context.Context, providerType string, raw []byte) (core.ConfigValidation, error) {
	component, err := s.component(providerType)
	if err != nil {
		return core.ConfigValidation{}, err
	}
	var validation core.ConfigValidation
	if err := json.Unmarshal(component.ValidateConfig(raw), &validation); err != nil {
		return core.ConfigValidation{}, core.InputError("decode config validation: " + err.Error())
	}
	return validation, nil
}

func (s *Service) Healthcheck(_ context.Context, providerType string) (string, error) {
	component, err := s.component(providerType)
	if err != nil {
		return "", err
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(component.Healthcheck(), &health); err != nil {
		return "", core.InputError("decode healthcheck: " + err.Error())
	}
	return health.Status, nil
}

func (s *Service) ListProviders(context.Context) []string {
	if s == nil || s.registry == nil {
		return nil
	}
	components := s.registry.List()
	out := make([]string, 0, len(components))
	for _, component := range components {
		out = append(out, component.ProviderType())
	}
	return out
}

// EnqueuePayload stores an encoded payload for a registered provider.
func (s *Service) EnqueuePayload(ctx context.Context, providerType string, tenantID string, payload core.ProviderPayload) (core.QueuedPayload, error) {
	if _, err := s.component(providerType); err != nil {
		return core.QueuedPayload{}, err
	}
	if strings.TrimSpace(payload.BodyB64) == "" {
		return core.QueuedPayload{}, core.ValidationError("payload body is required")
	}
	startedAt := time.Now()
	queued, err := s.outbox.Enqueue(ctx, core.QueuedPayload{
		ProviderType: strings.TrimSpace(providerType),
		TenantID:     strings.TrimSpace(tenantID),
		Payload:      payload,
	})
	s.observer.Observe(ctx, startedAt, "outbox_enqueue", err == nil, map[string]any{
		"provider_type": providerType,
	})
	return queued, err
}

// EncodeAndEnqueue runs encode on the provider and queues the resulting
// payload.
func (s *Service) EncodeAndEnqueue(ctx context.Context, providerType string, tenantID string, in core.EncodeIn) (core.QueuedPayload, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return core.QueuedPayload{}, core.InputError("encode input: " + err.Error())
	}
	out, err := s.Invoke(ctx, providerType, core.OpEncode, raw)
	if err != nil {
		return core.QueuedPayload{}, err
	}
	if !core.ResultOK(out) {
		return core.QueuedPayload{}, core.InputError(fmt.Sprintf("encode failed: %s", core.ResultMessage(out)))
	}
	var encoded struct {
		Payload core.ProviderPayload `json:"payload"`
	}
	if err := json.Unmarshal(out, &encoded); err != nil {
		return core.QueuedPayload{}, core.InputError("decode encode result: " + err.Error())
	}
	return s.EnqueuePayload(ctx, providerType, tenantID, encoded.Payload)
}

func (s *Service) DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error) {
	if s == nil || s.dispatcher == nil {
		return core.DispatchStats{}, fmt.Errorf("messaging: outbox dispatcher is not configured")
	}
	return s.dispatcher.DispatchPending(ctx, batchSize)
}

func (s *Service) component(providerType string) (core.Component, error) {
	if s == nil || s.registry == nil {
		return nil, fmt.Errorf("messaging: service is not configured")
	}
	component, ok := s.registry.Get(providerType)
	if !ok {
		return nil, core.ProviderNotFoundError(providerType)
	}
	return component, nil
}
