package gocommand

import (
	"errors"

	"github.com/goliatone/go-command/runner"

	messagingcommand "github.com/goliatone/go-messaging-providers/command"
	messagingquery "github.com/goliatone/go-messaging-providers/query"
)

// Handlers groups the messaging command and query handlers to bind.
// Nil entries are skipped.
type Handlers struct {
	Invoke         *messagingcommand.InvokeCommand
	SendPayload    *messagingcommand.SendPayloadCommand
	EnqueuePayload *messagingcommand.EnqueuePayloadCommand
	DispatchOutbox *messagingcommand.DispatchOutboxCommand

	Describe       *messagingquery.DescribeQuery
	ValidateConfig *messagingquery.ValidateConfigQuery
	Healthcheck    *messagingquery.HealthcheckQuery
	ListProviders  *messagingquery.ListProvidersQuery
}

// BindMessaging binds every non-nil handler and unsubscribes all of them
// when any registration fails.
func BindMessaging(b *Binder, handlers Handlers, runnerOpts ...runner.Option) error {
	var errs []error
	if handlers.Invoke != nil {
		errs = append(errs, BindCommand(b, handlers.Invoke, runnerOpts...))
	}
	if handlers.SendPayload != nil {
		errs = append(errs, BindCommand(b, handlers.SendPayload, runnerOpts...))
	}
	if handlers.EnqueuePayload != nil {
		errs = append(errs, BindCommand(b, handlers.EnqueuePayload, runnerOpts...))
	}
	if handlers.DispatchOutbox != nil {
		errs = append(errs, BindCommand(b, handlers.DispatchOutbox, runnerOpts...))
	}
	if handlers.Describe != nil {
		errs = append(errs, BindQuery(b, handlers.Describe, runnerOpts...))
	}
	if handlers.ValidateConfig != nil {
		errs = append(errs, BindQuery(b, handlers.ValidateConfig, runnerOpts...))
	}
	if handlers.Healthcheck != nil {
		errs = append(errs, BindQuery(b, handlers.Healthcheck, runnerOpts...))
	}
	if handlers.ListProviders != nil {
		errs = append(errs, BindQuery(b, handlers.ListProviders, runnerOpts...))
	}
	if err := errors.Join(errs...); err != nil {
		b.Close()
		return err
	}
	return nil
}
