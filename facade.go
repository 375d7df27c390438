package messaging

import (
	"fmt"

	"github.com/goliatone/go-messaging-providers/adapters/gocommand"
	messagingcommand "github.com/goliatone/go-messaging-providers/command"
	messagingquery "github.com/goliatone/go-messaging-providers/query"
)

type CommandQueryService interface {
	messagingcommand.InvokeService
	messagingcommand.OutboxService
	messagingquery.ProviderReader
}

type Commands struct {
	Invoke         *messagingcommand.InvokeCommand
	SendPayload    *messagingcommand.SendPayloadCommand
	EnqueuePayload *messagingcommand.EnqueuePayloadCommand
	DispatchOutbox *messagingcommand.DispatchOutboxCommand
}

type Queries struct {
	Describe       *messagingquery.DescribeQuery
	ValidateConfig *messagingquery.ValidateConfigQuery
	Healthcheck    *messagingquery.HealthcheckQuery
	ListProviders  *messagingquery.ListProvidersQuery
}

// Facade exposes the service through go-command handlers.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("messaging: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Invoke:         messagingcommand.NewInvokeCommand(service),
			SendPayload:    messagingcommand.NewSendPayloadCommand(service),
			EnqueuePayload: messagingcommand.NewEnqueuePayloadCommand(service),
			DispatchOutbox: messagingcommand.NewDispatchOutboxCommand(service),
		},
		queries: Queries{
			Describe:       messagingquery.NewDescribeQuery(service),
			ValidateConfig: messagingquery.NewValidateConfigQuery(service),
			Healthcheck:    messagingquery.NewHealthcheckQuery(service),
			ListProviders:  messagingquery.NewListProvidersQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// Bind registers every facade handler on the binder's registry and the
// go-command dispatcher.
func (f *Facade) Bind(binder *gocommand.Binder) error {
	if f == nil {
		return fmt.Errorf("messaging: facade is nil")
	}
	return gocommand.BindMessaging(binder, gocommand.Handlers{
		Invoke:         f.commands.Invoke,
		SendPayload:    f.commands.SendPayload,
		EnqueuePayload: f.commands.EnqueuePayload,
		DispatchOutbox: f.commands.DispatchOutbox,
		Describe:       f.queries.Describe,
		ValidateConfig: f.queries.ValidateConfig,
		Healthcheck:    f.queries.Healthcheck,
		ListProviders:  f.queries.ListProviders,
	})
}

var _ CommandQueryService = (*Service)(nil)
