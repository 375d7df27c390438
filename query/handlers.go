package query

import (
	"context"

	"github.com/goliatone/go-messaging-providers/core"
)

// ProviderReader exposes the read only lifecycle calls of registered
// providers.
type ProviderReader interface {
	Describe(ctx context.Context, providerType string) (core.ProviderManifest, error)
	ValidateConfig(ctx context.Context, providerType string, raw []byte) (core.ConfigValidation, error)
	Healthcheck(ctx context.Context, providerType string) (string, error)
	ListProviders(ctx context.Context) []string
}

type DescribeQuery struct {
	reader ProviderReader
}

func NewDescribeQuery(reader ProviderReader) *DescribeQuery {
	return &DescribeQuery{reader: reader}
}

func (q *DescribeQuery) Query(ctx context.Context, msg DescribeMessage) (core.ProviderManifest, error) {
	if q == nil || q.reader == nil {
		return core.ProviderManifest{}, queryDependencyError("query: provider reader is required")
	}
	return q.reader.Describe(ctx, msg.ProviderType)
}

type ValidateConfigQuery struct {
	reader ProviderReader
}

func NewValidateConfigQuery(reader ProviderReader) *ValidateConfigQuery {
	return &ValidateConfigQuery{reader: reader}
}

func (q *ValidateConfigQuery) Query(ctx context.Context, msg ValidateConfigMessage) (core.ConfigValidation, error) {
	if q == nil || q.reader == nil {
		return core.ConfigValidation{}, queryDependencyError("query: provider reader is required")
	}
	return q.reader.ValidateConfig(ctx, msg.ProviderType, msg.Config)
}

type HealthcheckQuery struct {
	reader ProviderReader
}

func NewHealthcheckQuery(reader ProviderReader) *HealthcheckQuery {
	return &HealthcheckQuery{reader: reader}
}

func (q *HealthcheckQuery) Query(ctx context.Context, msg HealthcheckMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: provider reader is required")
	}
	return q.reader.Healthcheck(ctx, msg.ProviderType)
}

type ListProvidersQuery struct {
	reader ProviderReader
}

func NewListProvidersQuery(reader ProviderReader) *ListProvidersQuery {
	return &ListProvidersQuery{reader: reader}
}

func (q *ListProvidersQuery) Query(ctx context.Context, _ ListProvidersMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: provider reader is required")
	}
	return q.reader.ListProviders(ctx), nil
}
