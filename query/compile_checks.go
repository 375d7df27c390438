package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-messaging-providers/core"
)

var (
	_ gocmd.Querier[DescribeMessage, core.ProviderManifest]       = (*DescribeQuery)(nil)
	_ gocmd.Querier[ValidateConfigMessage, core.ConfigValidation] = (*ValidateConfigQuery)(nil)
	_ gocmd.Querier[HealthcheckMessage, string]                   = (*HealthcheckQuery)(nil)
	_ gocmd.Querier[ListProvidersMessage, []string]               = (*ListProvidersQuery)(nil)
)
