package inbound

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

// EventHandler consumes one normalized inbound message.
type EventHandler interface {
	HandleEvent(ctx context.Context, providerType string, event core.ChannelMessageEnvelope) error
}

type EventHandlerFunc func(ctx context.Context, providerType string, event core.ChannelMessageEnvelope) error

func (fn EventHandlerFunc) HandleEvent(ctx context.Context, providerType string, event core.ChannelMessageEnvelope) error {
	return fn(ctx, providerType, event)
}

// Result carries the provider reply. Deduped counts events skipped because
// their delivery was already handled.
type Result struct {
	Out       core.HTTPOut
	Delivered int
	Deduped   int
}

type Option func(*Dispatcher)

func WithClaimStore(store ClaimStore) Option {
	return func(d *Dispatcher) {
		d.claims = store
	}
}

func WithClaimTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithKeyFunc overrides how the delivery key is read from a request.
func WithKeyFunc(fn func(core.HTTPIn) string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.keyFunc = fn
		}
	}
}

func WithDependencies(deps core.Dependencies) Option {
	return func(d *Dispatcher) {
		deps = core.ResolveDependencies("messaging.inbound", deps)
		d.observer = core.NewObserver(deps.Logger, deps.MetricsRecorder)
		d.secrets = deps.Secrets
	}
}

// WithGatewayTemplate authenticates every request before any provider sees
// it. The template secret is read from the dependency secret store; when it
// is unbound the check is skipped.
func WithGatewayTemplate(template webhooks.ProviderWebhookTemplate) Option {
	return func(d *Dispatcher) {
		d.gateway = &template
	}
}

type Dispatcher struct {
	registry core.Registry
	handler  EventHandler
	claims   ClaimStore
	ttl      time.Duration
	keyFunc  func(core.HTTPIn) string
	observer core.Observer
	secrets  core.SecretStore
	gateway  *webhooks.ProviderWebhookTemplate
}

func NewDispatcher(registry core.Registry, handler EventHandler, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, inboundInternal("inbound: provider registry is required", nil)
	}
	if handler == nil {
		return nil, inboundInternal("inbound: event handler is required", nil)
	}
	deps := core.ResolveDependencies("messaging.inbound", core.Dependencies{})
	d := &Dispatcher{
		registry: registry,
		handler:  handler,
		claims:   NewMemoryClaimStore(),
		ttl:      10 * time.Minute,
		keyFunc:  DeliveryKey,
		observer: core.NewObserver(deps.Logger, deps.MetricsRecorder),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Dispatch runs ingest_http and delivers the accepted events. The provider's
// HTTP reply is returned even when a handler fails, with its status turned
// into 500 so the platform redelivers.
func (d *Dispatcher) Dispatch(ctx context.Context, providerType string, req core.HTTPIn) (Result, error) {
	if d == nil {
		return Result{}, inboundInternal("inbound: dispatcher is nil", nil)
	}
	providerType = strings.TrimSpace(providerType)
	component, ok := d.registry.Get(providerType)
	if !ok {
		return Result{}, core.ProviderNotFoundError(providerType)
	}
	startedAt := time.Now()
	if d.gateway != nil {
		body, _ := base64.StdEncoding.DecodeString(req.BodyB64)
		if err := d.gateway.Authenticate(ctx, d.secrets, webhooks.Request{Headers: req.Headers, Body: body}); err != nil {
			result := Result{Out: webhooks.ErrorOutFrom(err)}
			d.observe(ctx, startedAt, providerType, result, err)
			return result, nil
		}
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return Result{}, inboundInternal("inbound: encode request: "+err.Error(), nil)
	}

	var out core.HTTPOut
	if err := json.Unmarshal(component.Invoke(ctx, core.OpIngestHTTP, raw), &out); err != nil {
		return Result{}, inboundInternal("inbound: decode ingest result: "+err.Error(), map[string]any{
			"provider_type": providerType,
		})
	}
	result := Result{Out: out}
	if len(out.Events) == 0 {
		return result, nil
	}

	key := ""
	if delivery := d.keyFunc(req); d.claims != nil && delivery != "" {
		key = providerType + ":" + delivery
		accepted, err := d.claims.Claim(ctx, key, d.ttl)
		if err != nil {
			return result, inboundWrapError(err, "inbound: claim delivery", http.StatusInternalServerError, core.ErrorInternal, map[string]any{
				"provider_type": providerType,
				"delivery_key":  delivery,
			})
		}
		if !accepted {
			result.Deduped = len(out.Events)
			d.observe(ctx, startedAt, providerType, result, nil)
			return result, nil
		}
	}

	var dispatchErr error
	for _, event := range out.Events {
		if err := d.handler.HandleEvent(ctx, providerType, event); err != nil {
			dispatchErr = errors.Join(dispatchErr, inboundWrapError(err, fmt.Sprintf("inbound: handle event %s", event.ID), http.StatusBadGateway, core.ErrorInternal, map[string]any{
				"provider_type": providerType,
				"event_id":      event.ID,
			}))
			continue
		}
		result.Delivered++
	}

	if key != "" {
		if dispatchErr != nil {
			dispatchErr = errors.Join(dispatchErr, d.claims.Fail(ctx, key))
		} else {
			dispatchErr = d.claims.Complete(ctx, key)
		}
	}
	if dispatchErr != nil {
		result.Out.Status = http.StatusInternalServerError
	}
	d.observe(ctx, startedAt, providerType, result, dispatchErr)
	return result, dispatchErr
}

func (d *Dispatcher) observe(ctx context.Context, startedAt time.Time, providerType string, result Result, err error) {
	d.observer.Observe(ctx, startedAt, "inbound_dispatch", err == nil, map[string]any{
		"provider_type": providerType,
		"status":        result.Out.Status,
		"events":        len(result.Out.Events),
		"delivered":     result.Delivered,
		"deduped":       result.Deduped,
	})
}

// DeliveryKey returns the platform delivery id from the Idempotency-Key,
// X-Idempotency-Key or X-Request-Id header, else the Slack timestamp and
// signature pair. Requests without one are not deduplicated.
func DeliveryKey(req core.HTTPIn) string {
	for _, name := range []string{"Idempotency-Key", "X-Idempotency-Key", "X-Request-Id"} {
		if value := strings.TrimSpace(req.Header(name)); value != "" {
			return value
		}
	}
	if signature := strings.TrimSpace(req.Header("X-Slack-Signature")); signature != "" {
		return strings.TrimSpace(req.Header("X-Slack-Request-Timestamp")) + ":" + signature
	}
	return ""
}
