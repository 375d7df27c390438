package core

import (
	"encoding/json"
	"fmt"
)

// ConfigValidation is the decoded result of validate_config.
type ConfigValidation struct {
	OK     bool            `json:"ok"`
	Config json.RawMessage `json:"config,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ProviderNotFoundError reports a provider type with no registered
// component.
func ProviderNotFoundError(providerType string) error {
	return UnsupportedError(fmt.Sprintf("provider not registered: %s", providerType)).
		WithCode(404)
}
