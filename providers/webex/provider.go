// Package webex implements the Universal Provider Protocol for Webex bots.
package webex

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/common"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

const (
	ProviderType      = "messaging.webex.bot"
	DefaultAPIBaseURL = "https://webexapis.com/v1"
	ConfigSchemaRef   = "schemas/messaging/webex/public.config.schema.json"

	DefaultTokenKey         = "WEBEX_BOT_TOKEN"
	DefaultWebhookSecretKey = "WEBEX_WEBHOOK_SECRET"

	platformName         = "webex"
	messagePlaceholderID = "webex-message"
	replyPlaceholderID   = "webex-reply"
	summaryPlaceholder   = "webex message"
)

// Config is the construction time configuration of a Provider.
type Config struct {
	APIBaseURL       string `koanf:"api_base_url" mapstructure:"api_base_url"`
	TokenKey         string `koanf:"token_key" mapstructure:"token_key"`
	WebhookSecretKey string `koanf:"webhook_secret_key" mapstructure:"webhook_secret_key"`
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:       DefaultAPIBaseURL,
		TokenKey:         DefaultTokenKey,
		WebhookSecretKey: DefaultWebhookSecretKey,
	}
}

// LoadConfig builds a Config from a raw map, filling defaults.
func LoadConfig(raw map[string]any) (Config, error) {
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(DefaultConfig()),
		cfgx.WithValidator[Config](validateConfig),
	)
	if err != nil {
		return Config{}, core.ValidationError("webex: invalid provider config: " + core.ErrorMessage(err))
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return core.ValidationError("config is required")
	}
	if strings.TrimSpace(cfg.TokenKey) == "" {
		return core.ValidationError("token_key is required")
	}
	if base := strings.TrimSpace(cfg.APIBaseURL); base != "" &&
		!strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
		return core.ValidationError("api_base_url must be an http(s) url")
	}
	return nil
}

// Provider is the Webex bot component. It holds no per-request state and
// is safe for concurrent use.
type Provider struct {
	config     Config
	deps       core.Dependencies
	dispatcher common.Dispatcher
	webhook    webhooks.ProviderWebhookTemplate
	resolver   configResolver
	router     *core.OpRouter
	observer   core.Observer
}

func New(cfg Config, deps core.Dependencies) (*Provider, error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaults.APIBaseURL
	}
	if strings.TrimSpace(cfg.TokenKey) == "" {
		cfg.TokenKey = defaults.TokenKey
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	deps = core.ResolveDependencies(ProviderType, deps)
	p := &Provider{
		config:     cfg,
		deps:       deps,
		dispatcher: common.Dispatcher{Platform: platformName, Transport: deps.Transport},
		webhook:    webhooks.NewWebexWebhookTemplate(ProviderType, cfg.WebhookSecretKey),
		resolver:   newConfigResolver(),
		observer:   core.NewObserver(deps.Logger, deps.MetricsRecorder),
	}
	p.router = core.NewOpRouter().
		Handle(core.OpSend, p.send).
		Handle(core.OpReply, p.reply).
		Handle(core.OpIngestHTTP, p.ingestHTTP).
		Handle(core.OpRenderPlan, p.renderPlan).
		Handle(core.OpEncode, p.encode).
		Handle(core.OpSendPayload, p.sendPayload)
	return p, nil
}

func (p *Provider) ProviderType() string {
	return ProviderType
}

func (p *Provider) Describe() []byte {
	return core.MarshalResult(core.ProviderManifest{
		ProviderType:    ProviderType,
		Capabilities:    []string{},
		Ops:             core.StandardOps(),
		ConfigSchemaRef: core.StringPtr(ConfigSchemaRef),
		StateSchemaRef:  nil,
	})
}

// ValidateConfig parses raw bytes against the closed config schema and
// echoes the normalized config with the API base filled in.
func (p *Provider) ValidateConfig(raw []byte) []byte {
	cfg, err := p.resolver.Parse(raw)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	base := cfg.APIBaseURL
	if base == "" {
		base = p.config.APIBaseURL
	}
	return core.OKResult(map[string]any{
		"config": map[string]any{
			"default_room_id": optionalString(cfg.DefaultRoomID),
			"api_base_url":    base,
		},
	})
}

func (p *Provider) Healthcheck() []byte {
	return core.MarshalResult(map[string]string{"status": "ok"})
}

func (p *Provider) Invoke(ctx context.Context, op string, input []byte) []byte {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	result := p.router.Route(ctx, op, input)
	p.observer.ObserveInvoke(ctx, startedAt, ProviderType, op, result)
	return result
}

func (p *Provider) apiBase(cfg ProviderConfig) string {
	if base := strings.TrimSpace(cfg.APIBaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	return p.config.APIBaseURL
}

func (p *Provider) messagesURL(cfg ProviderConfig) string {
	return p.apiBase(cfg) + "/messages"
}

func optionalString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ core.Component = (*Provider)(nil)
