package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"

	messagingcommand "github.com/goliatone/go-messaging-providers/command"
	"github.com/goliatone/go-messaging-providers/core"
	messagingquery "github.com/goliatone/go-messaging-providers/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "messaging.test.ok" }

type untypedMessage struct{}

func (untypedMessage) Type() string { return "" }

type rejectedMessage struct{}

func (rejectedMessage) Type() string { return "messaging.test.rejected" }

func (rejectedMessage) Validate() error { return errors.New("invalid payload") }

type pingMessage struct {
	ID string
}

func (pingMessage) Type() string { return "messaging.test.ping" }

type fakeService struct {
	invoked []string
}

func (s *fakeService) Invoke(_ context.Context, providerType string, op string, _ []byte) ([]byte, error) {
	s.invoked = append(s.invoked, providerType+"/"+op)
	return []byte(`{"ok":true}`), nil
}

func (s *fakeService) SendPayload(context.Context, core.SendPayloadIn) (core.SendPayloadResult, error) {
	return core.SendPayloadResult{OK: true}, nil
}

func (s *fakeService) Describe(_ context.Context, providerType string) (core.ProviderManifest, error) {
	return core.ProviderManifest{ProviderType: providerType, Ops: core.StandardOps()}, nil
}

func (s *fakeService) ValidateConfig(context.Context, string, []byte) (core.ConfigValidation, error) {
	return core.ConfigValidation{OK: true}, nil
}

func (s *fakeService) Healthcheck(context.Context, string) (string, error) {
	return "ok", nil
}

func (s *fakeService) ListProviders(context.Context) []string {
	return []string{"messaging.webex.bot"}
}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(untypedMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(rejectedMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestBinderDispatchAndResolvers(t *testing.T) {
	binder := NewBinder(command.NewRegistry())
	defer binder.Close()
	executed := 0
	resolverCalls := 0

	cmd := command.CommandFunc[pingMessage](func(context.Context, pingMessage) error {
		executed++
		return nil
	})
	if err := BindCommand(binder, cmd); err != nil {
		t.Fatalf("bind command: %v", err)
	}
	if err := binder.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		resolverCalls++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !binder.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := binder.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if resolverCalls == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), pingMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestBindMessaging(t *testing.T) {
	svc := &fakeService{}
	binder := NewBinder(nil)
	defer binder.Close()

	err := BindMessaging(binder, Handlers{
		Invoke:   messagingcommand.NewInvokeCommand(svc),
		Describe: messagingquery.NewDescribeQuery(svc),
	})
	if err != nil {
		t.Fatalf("bind messaging: %v", err)
	}

	msg := messagingcommand.InvokeMessage{ProviderType: "messaging.webex.bot", Op: "healthcheck", Input: []byte(`{}`)}
	if err := Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch invoke: %v", err)
	}
	if len(svc.invoked) != 1 || svc.invoked[0] != "messaging.webex.bot/healthcheck" {
		t.Fatalf("unexpected invocations %v", svc.invoked)
	}

	manifest, err := Query[messagingquery.DescribeMessage, core.ProviderManifest](
		context.Background(),
		messagingquery.DescribeMessage{ProviderType: "messaging.webex.bot"},
	)
	if err != nil || manifest.ProviderType != "messaging.webex.bot" {
		t.Fatalf("unexpected manifest %+v err=%v", manifest, err)
	}
}

func TestBindCommandRequiresRegistry(t *testing.T) {
	var binder *Binder
	cmd := command.CommandFunc[pingMessage](func(context.Context, pingMessage) error { return nil })
	if err := BindCommand(binder, cmd); err == nil {
		t.Fatalf("expected missing registry error")
	}
}
