// Package transport provides the net/http implementation of the
// core.Transport capability.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-messaging-providers/core"
)

const (
	defaultClientTimeout     = 30 * time.Second
	defaultResponseBodyLimit = int64(10 << 20) // 10 MiB
	defaultRequestIDHeader   = "X-Request-Id"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPTransport executes one HTTP request per Send call. It never retries.
type HTTPTransport struct {
	client               HTTPDoer
	defaultHeaders       map[string]string
	maxResponseBodyBytes int64
	timeout              time.Duration
	requestIDHeader      string
	logger               core.Logger
}

type Option func(*HTTPTransport)

func WithHTTPClient(client HTTPDoer) Option {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

func WithDefaultHeaders(headers map[string]string) Option {
	return func(t *HTTPTransport) {
		for key, value := range headers {
			t.defaultHeaders[key] = value
		}
	}
}

func WithMaxResponseBodyBytes(limit int64) Option {
	return func(t *HTTPTransport) {
		if limit > 0 {
			t.maxResponseBodyBytes = limit
		}
	}
}

// WithTimeout bounds each request. Zero leaves the client timeout in charge.
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		t.timeout = timeout
	}
}

// WithRequestIDHeader sets the header stamped with a generated request id
// when the caller did not provide one. An empty name disables stamping.
func WithRequestIDHeader(name string) Option {
	return func(t *HTTPTransport) {
		t.requestIDHeader = strings.TrimSpace(name)
	}
}

func WithLogger(logger core.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client:               &http.Client{Timeout: defaultClientTimeout},
		defaultHeaders:       map[string]string{},
		maxResponseBodyBytes: defaultResponseBodyLimit,
		requestIDHeader:      defaultRequestIDHeader,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(t)
	}
	t.logger = glog.Ensure(t.logger)
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, req core.HTTPRequest) (core.HTTPResponse, error) {
	if t == nil || t.client == nil {
		return core.HTTPResponse{}, transportError(
			"transport: http transport requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	parsedURL, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return core.HTTPResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			map[string]any{"url": strings.TrimSpace(req.URL)},
		)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return core.HTTPResponse{}, transportError(
			"transport: absolute request url is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"url": strings.TrimSpace(req.URL)},
		)
	}

	requestCtx := ctx
	cancel := func() {}
	if t.timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, t.timeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, parsedURL.String(), bytes.NewReader(req.Body))
	if err != nil {
		return core.HTTPResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"method": method, "url": parsedURL.String()},
		)
	}
	for key, value := range t.defaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if t.requestIDHeader != "" && httpReq.Header.Get(t.requestIDHeader) == "" {
		httpReq.Header.Set(t.requestIDHeader, uuid.NewString())
	}

	startedAt := time.Now()
	httpRes, err := t.client.Do(httpReq)
	if err != nil {
		return core.HTTPResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"method": method, "url": parsedURL.String()},
		)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpRes.Body, t.maxResponseBodyBytes+1))
	if err != nil {
		return core.HTTPResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode},
		)
	}
	if int64(len(body)) > t.maxResponseBodyBytes {
		return core.HTTPResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", t.maxResponseBodyBytes),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode, "response_limit_b": t.maxResponseBodyBytes},
		)
	}

	t.logger.Debug("transport request completed",
		"method", method,
		"url", parsedURL.String(),
		"status_code", httpRes.StatusCode,
		"duration_ms", time.Since(startedAt).Milliseconds(),
		"request_headers", core.RedactHeaders(req.Headers),
	)

	return core.HTTPResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       body,
	}, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

var _ core.Transport = (*HTTPTransport)(nil)
