package core

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Component is the six operation provider contract. Every operation takes
// and returns raw JSON bytes; failures are reported in-band.
type Component interface {
	ProviderType() string
	Describe() []byte
	ValidateConfig(config []byte) []byte
	Healthcheck() []byte
	Invoke(ctx context.Context, op string, input []byte) []byte
}

// HTTPRequest is an outbound request issued through the Transport capability.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Transport is the host supplied HTTP capability. Failures are reported as
// *TransportError when the host can classify them, or any other error.
type Transport interface {
	Send(ctx context.Context, req HTTPRequest) (HTTPResponse, error)
}

// SecretStore is the host supplied secret capability. A missing secret is
// reported as found == false with a nil error.
type SecretStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
}

type TransportFunc func(ctx context.Context, req HTTPRequest) (HTTPResponse, error)

func (fn TransportFunc) Send(ctx context.Context, req HTTPRequest) (HTTPResponse, error) {
	return fn(ctx, req)
}

type SecretStoreFunc func(ctx context.Context, key string) ([]byte, bool, error)

func (fn SecretStoreFunc) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return fn(ctx, key)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// HeaderValue returns the first header value matching name case-insensitively.
func HeaderValue(headers []Header, name string) string {
	name = strings.TrimSpace(name)
	for _, header := range headers {
		if strings.EqualFold(strings.TrimSpace(header.Name), name) {
			return strings.TrimSpace(header.Value)
		}
	}
	return ""
}
