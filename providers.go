package messaging

import (
	"strings"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/providers/slack"
	"github.com/goliatone/go-messaging-providers/providers/webex"
)

func WebexProvider(cfg webex.Config, deps core.Dependencies) (core.Component, error) {
	return webex.New(cfg, deps)
}

func SlackProvider(cfg slack.Config, deps core.Dependencies, opts ...slack.Option) (core.Component, error) {
	return slack.New(cfg, deps, opts...)
}

// BuiltinProviders constructs the providers listed in cfg.Providers, in
// order. An empty list builds every built-in provider.
func BuiltinProviders(cfg Config, deps core.Dependencies) ([]core.Component, error) {
	selected := cfg.Providers
	if len(selected) == 0 {
		selected = DefaultConfig().Providers
	}
	components := make([]core.Component, 0, len(selected))
	for _, providerType := range selected {
		var (
			component core.Component
			err       error
		)
		switch strings.TrimSpace(providerType) {
		case webex.ProviderType:
			component, err = WebexProvider(cfg.Webex, deps)
		case slack.ProviderType:
			component, err = SlackProvider(cfg.Slack, deps)
		default:
			return nil, core.ValidationError("unknown provider: " + providerType)
		}
		if err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	return components, nil
}

// NewRegistry registers components, failing on duplicate provider types.
func NewRegistry(components ...core.Component) (*core.ProviderRegistry, error) {
	registry := core.NewProviderRegistry()
	for _, component := range components {
		if err := registry.Register(component); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
