package sqlstore

import (
	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/ratelimit"
)

var (
	_ core.PayloadOutboxStore = (*PayloadOutboxStore)(nil)
	_ ratelimit.StateStore    = (*RateLimitStateStore)(nil)
	_ ratelimit.StateStore    = (*CachedRateLimitStateStore)(nil)
)
