package webex

import (
	"github.com/goliatone/go-messaging-providers/providerconfig"
)

// ProviderConfig is the per-request Webex configuration. Both fields are
// optional; unknown fields are rejected in an explicit config object.
type ProviderConfig struct {
	DefaultRoomID string `koanf:"default_room_id" mapstructure:"default_room_id" json:"default_room_id,omitempty"`
	APIBaseURL    string `koanf:"api_base_url" mapstructure:"api_base_url" json:"api_base_url,omitempty"`
}

type configResolver = providerconfig.Resolver[ProviderConfig]

func newConfigResolver() configResolver {
	return configResolver{
		Schema: providerconfig.NewSchema("default_room_id", "api_base_url"),
	}
}
