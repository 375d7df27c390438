package ratelimit

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-messaging-providers/core"
)

// CodeRateLimited is the TransportError code reported for a throttled
// bucket.
const CodeRateLimited = "rate_limited"

// Transport consults the policy around every request of the wrapped
// transport.
type Transport struct {
	next   core.Transport
	policy *AdaptivePolicy
	logger core.Logger
}

type TransportOption func(*Transport)

func WithLogger(logger core.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

func NewTransport(next core.Transport, policy *AdaptivePolicy, opts ...TransportOption) *Transport {
	if policy == nil {
		policy = NewAdaptivePolicy(NewMemoryStateStore())
	}
	t := &Transport{next: next, policy: policy}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.logger = glog.Ensure(t.logger)
	return t
}

func (t *Transport) Send(ctx context.Context, req core.HTTPRequest) (core.HTTPResponse, error) {
	if t == nil || t.next == nil {
		return core.HTTPResponse{}, &core.TransportError{Code: "unavailable", Message: "transport is not configured"}
	}
	bucket := BucketFor(req.URL)
	wait, err := t.policy.BeforeCall(ctx, bucket)
	if err != nil {
		return core.HTTPResponse{}, &core.TransportError{Code: "internal", Message: "rate limit state: " + err.Error()}
	}
	if wait > 0 {
		return core.HTTPResponse{}, &core.TransportError{
			Code:    CodeRateLimited,
			Message: fmt.Sprintf("%s throttled for %s", bucket, wait.Round(time.Millisecond)),
		}
	}
	res, err := t.next.Send(ctx, req)
	if err != nil {
		return res, err
	}
	// The request already reached the platform: state write failures are
	// logged, the response is still returned.
	if err := t.policy.AfterCall(ctx, bucket, res); err != nil {
		t.logger.Warn("rate limit state update failed",
			"bucket", bucket.String(),
			"status_code", res.StatusCode,
			"error", err.Error(),
		)
	}
	return res, nil
}

var _ core.Transport = (*Transport)(nil)
