// Package slack is a reduced Universal Provider Protocol implementation for
// Slack bots. It shares render_plan, encode and send_payload with the other
// chat providers and replicates destination and config resolution in a
// single channel form.
package slack

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providerconfig"
	"github.com/goliatone/go-messaging-providers/providers/common"
	"github.com/goliatone/go-messaging-providers/webhooks"
)

const (
	ProviderType      = "messaging.slack.bot"
	DefaultAPIBaseURL = "https://slack.com/api"
	ConfigSchemaRef   = "schemas/messaging/slack/public.config.schema.json"

	DefaultTokenKey         = "SLACK_BOT_TOKEN"
	DefaultSigningSecretKey = "SLACK_SIGNING_SECRET"

	platformName         = "slack"
	messagePlaceholderID = "slack-message"
	replyPlaceholderID   = "slack-reply"
	summaryPlaceholder   = "slack message"
)

type Config struct {
	APIBaseURL       string `koanf:"api_base_url" mapstructure:"api_base_url"`
	TokenKey         string `koanf:"token_key" mapstructure:"token_key"`
	SigningSecretKey string `koanf:"signing_secret_key" mapstructure:"signing_secret_key"`
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:       DefaultAPIBaseURL,
		TokenKey:         DefaultTokenKey,
		SigningSecretKey: DefaultSigningSecretKey,
	}
}

func LoadConfig(raw map[string]any) (Config, error) {
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(DefaultConfig()),
		cfgx.WithValidator[Config](func(cfg *Config) error {
			if strings.TrimSpace(cfg.TokenKey) == "" {
				return core.ValidationError("token_key is required")
			}
			return nil
		}),
	)
	if err != nil {
		return Config{}, core.ValidationError("slack: invalid provider config: " + core.ErrorMessage(err))
	}
	return cfg, nil
}

// ProviderConfig is the per-request Slack configuration.
type ProviderConfig struct {
	DefaultChannel string `koanf:"default_channel" mapstructure:"default_channel" json:"default_channel,omitempty"`
	APIBaseURL     string `koanf:"api_base_url" mapstructure:"api_base_url" json:"api_base_url,omitempty"`
}

type Option func(*Provider)

// WithClock overrides the clock used for webhook replay windows.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

type Provider struct {
	config     Config
	deps       core.Dependencies
	dispatcher common.Dispatcher
	resolver   providerconfig.Resolver[ProviderConfig]
	router     *core.OpRouter
	observer   core.Observer
	now        func() time.Time
}

func New(cfg Config, deps core.Dependencies, opts ...Option) (*Provider, error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaults.APIBaseURL
	}
	if strings.TrimSpace(cfg.TokenKey) == "" {
		cfg.TokenKey = defaults.TokenKey
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	deps = core.ResolveDependencies(ProviderType, deps)
	p := &Provider{
		config:     cfg,
		deps:       deps,
		dispatcher: common.Dispatcher{Platform: platformName, Transport: deps.Transport},
		resolver: providerconfig.Resolver[ProviderConfig]{
			Schema: providerconfig.NewSchema("default_channel", "api_base_url"),
		},
		observer: core.NewObserver(deps.Logger, deps.MetricsRecorder),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.router = core.NewOpRouter().
		Handle(core.OpSend, p.send).
		Handle(core.OpReply, p.reply).
		Handle(core.OpIngestHTTP, p.ingestHTTP).
		Handle(core.OpRenderPlan, func(_ context.Context, input []byte) []byte {
			return common.RenderPlan(input, summaryPlaceholder)
		}).
		Handle(core.OpEncode, func(_ context.Context, input []byte) []byte {
			return common.Encode(input, DefaultAPIBaseURL+"/chat.postMessage", "POST")
		}).
		Handle(core.OpSendPayload, func(ctx context.Context, input []byte) []byte {
			return common.SendPayload(ctx, input, ProviderType, p.send)
		})
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
	})
}

func (p *Provider) ValidateConfig(raw []byte) []byte {
	cfg, err := p.resolver.Parse(raw)
	if err != nil {
		return core.ErrorResultFrom(err)
	}
	var channel any
	if cfg.DefaultChannel != "" {
		channel = cfg.DefaultChannel
	}
	return core.OKResult(map[string]any{
		"config": map[string]any{
			"default_channel": channel,
			"api_base_url":    p.apiBase(cfg),
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

func (p *Provider) webhookTemplate() webhooks.ProviderWebhookTemplate {
	return webhooks.NewSlackWebhookTemplate(ProviderType, p.config.SigningSecretKey, p.now)
}

func (p *Provider) apiBase(cfg ProviderConfig) string {
	if base := strings.TrimSpace(cfg.APIBaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	return p.config.APIBaseURL
}

var _ core.Component = (*Provider)(nil)
