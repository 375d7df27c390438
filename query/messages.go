package query

import (
	"strings"
)

const (
	TypeDescribe       = "messaging.query.describe"
	TypeValidateConfig = "messaging.query.validate_config"
	TypeListProviders  = "messaging.query.providers.list"
	TypeHealthcheck    = "messaging.query.healthcheck"
)

type DescribeMessage struct {
	ProviderType string
}

func (DescribeMessage) Type() string { return TypeDescribe }

func (m DescribeMessage) Validate() error {
	if strings.TrimSpace(m.ProviderType) == "" {
		return queryValidationError("provider_type", "provider type is required")
	}
	return nil
}

type ValidateConfigMessage struct {
	ProviderType string
	Config       []byte
}

func (ValidateConfigMessage) Type() string { return TypeValidateConfig }

func (m ValidateConfigMessage) Validate() error {
	if strings.TrimSpace(m.ProviderType) == "" {
		return queryValidationError("provider_type", "provider type is required")
	}
	if len(m.Config) == 0 {
		return queryValidationError("config", "config bytes are required")
	}
	return nil
}

type HealthcheckMessage struct {
	ProviderType string
}

func (HealthcheckMessage) Type() string { return TypeHealthcheck }

func (m HealthcheckMessage) Validate() error {
	if strings.TrimSpace(m.ProviderType) == "" {
		return queryValidationError("provider_type", "provider type is required")
	}
	return nil
}

type ListProvidersMessage struct{}

func (ListProvidersMessage) Type() string { return TypeListProviders }
