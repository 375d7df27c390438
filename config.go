package messaging

import (
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/slack"
	"github.com/goliatone/go-messaging-providers/providers/webex"
	"github.com/goliatone/go-messaging-providers/security"
)

// Config selects and configures the built-in providers and the payload
// outbox.
type Config struct {
	Providers []string        `koanf:"providers" mapstructure:"providers"`
	Webex     webex.Config    `koanf:"webex" mapstructure:"webex"`
	Slack     slack.Config    `koanf:"slack" mapstructure:"slack"`
	Outbox    OutboxConfig    `koanf:"outbox" mapstructure:"outbox"`
	RateLimit RateLimitConfig `koanf:"rate_limit" mapstructure:"rate_limit"`
	Secrets   SecretsConfig   `koanf:"secrets" mapstructure:"secrets"`
	Inbound   InboundConfig   `koanf:"inbound" mapstructure:"inbound"`
}

// InboundConfig drives Service.NewInboundDispatcher. When the secret store
// holds TokenKey, every webhook must carry it in TokenHeader.
type InboundConfig struct {
	ClaimTTL    time.Duration `koanf:"claim_ttl" mapstructure:"claim_ttl"`
	TokenHeader string        `koanf:"token_header" mapstructure:"token_header"`
	TokenKey    string        `koanf:"token_key" mapstructure:"token_key"`
}

// SecretsConfig seeds a static secret store. Values may be sealed with
// AppKey; unsealed values are served as is. Host stores passed through
// core.Dependencies are consulted first.
type SecretsConfig struct {
	AppKey string            `koanf:"app_key" mapstructure:"app_key"`
	Values map[string]string `koanf:"values" mapstructure:"values"`
}

// RateLimitConfig enables per endpoint throttling of the outbound transport.
// State lives in memory unless a shared store is supplied with
// WithRateLimitStateStore or WithSQLStores; CacheTTL fronts that store with
// a read cache.
type RateLimitConfig struct {
	Enabled        bool          `koanf:"enabled" mapstructure:"enabled"`
	InitialBackoff time.Duration `koanf:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff" mapstructure:"max_backoff"`
	CacheTTL       time.Duration `koanf:"cache_ttl" mapstructure:"cache_ttl"`
}

type OutboxConfig struct {
	BatchSize      int           `koanf:"batch_size" mapstructure:"batch_size"`
	MaxAttempts    int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff" mapstructure:"max_backoff"`
}

func DefaultConfig() Config {
	dispatch := core.DefaultOutboxDispatcherConfig()
	return Config{
		Providers: []string{webex.ProviderType, slack.ProviderType},
		Webex:     webex.DefaultConfig(),
		Slack:     slack.DefaultConfig(),
		Outbox: OutboxConfig{
			BatchSize:      dispatch.BatchSize,
			MaxAttempts:    dispatch.MaxAttempts,
			InitialBackoff: dispatch.InitialBackoff,
			MaxBackoff:     dispatch.MaxBackoff,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			InitialBackoff: time.Second,
			MaxBackoff:     time.Minute,
		},
		Inbound: InboundConfig{
			ClaimTTL:    10 * time.Minute,
			TokenHeader: "X-Webhook-Token",
			TokenKey:    "MESSAGING_WEBHOOK_TOKEN",
		},
	}
}

// LoadConfig decodes raw host configuration over DefaultConfig.
func LoadConfig(raw map[string]any) (Config, error) {
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(DefaultConfig()),
		cfgx.WithValidator[Config](validateConfig),
	)
	if err != nil {
		return Config{}, core.ValidationError("messaging: invalid config: " + core.ErrorMessage(err))
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	for _, providerType := range cfg.Providers {
		switch strings.TrimSpace(providerType) {
		case webex.ProviderType, slack.ProviderType:
		default:
			return core.ValidationError("unknown provider: " + providerType)
		}
	}
	if cfg.Outbox.BatchSize < 0 || cfg.Outbox.MaxAttempts < 0 {
		return core.ValidationError("outbox batch_size and max_attempts must not be negative")
	}
	if cfg.Outbox.InitialBackoff < 0 || cfg.Outbox.MaxBackoff < 0 {
		return core.ValidationError("outbox backoff must not be negative")
	}
	if cfg.RateLimit.InitialBackoff < 0 || cfg.RateLimit.MaxBackoff < 0 || cfg.RateLimit.CacheTTL < 0 {
		return core.ValidationError("rate_limit durations must not be negative")
	}
	if cfg.Inbound.ClaimTTL < 0 {
		return core.ValidationError("inbound claim_ttl must not be negative")
	}
	if strings.TrimSpace(cfg.Secrets.AppKey) == "" {
		for key, value := range cfg.Secrets.Values {
			if security.IsSealed([]byte(value)) {
				return core.ValidationError("secret " + key + " is sealed but secrets.app_key is empty")
			}
		}
	}
	return nil
}

func (c SecretsConfig) store(host core.SecretStore) (core.SecretStore, error) {
	if len(c.Values) == 0 {
		return host, nil
	}
	var configured core.SecretStore = security.NewStaticSecretStore(c.Values)
	if key := strings.TrimSpace(c.AppKey); key != "" {
		cipher, err := security.NewAppKeyCipherFromString(key)
		if err != nil {
			return nil, core.ValidationError("messaging: secrets: " + err.Error())
		}
		configured = security.NewSealedSecretStore(configured, cipher)
	}
	if host == nil {
		return configured, nil
	}
	return security.NewChainSecretStore(host, configured), nil
}

func (c OutboxConfig) dispatcherConfig() core.OutboxDispatcherConfig {
	return core.OutboxDispatcherConfig{
		BatchSize:      c.BatchSize,
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
	}
}
