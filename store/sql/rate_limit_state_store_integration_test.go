package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-messaging-providers/core"
	"github.com/goliatone/go-messaging-providers/ratelimit"
	sqlstore "github.com/goliatone/go-messaging-providers/store/sql"
)

func TestRateLimitStateStore_SharesThrottleAcrossPolicies(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	store, err := sqlstore.NewRateLimitStateStore(client.DB())
	if err != nil {
		t.Fatalf("new rate limit state store: %v", err)
	}
	bucket := ratelimit.BucketFor("https://webexapis.com/v1/messages")
	if _, err := store.Get(ctx, bucket); !errors.Is(err, ratelimit.ErrStateNotFound) {
		t.Fatalf("expected state not found, got %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := ratelimit.NewAdaptivePolicy(store)
	first.Now = func() time.Time { return now }
	second := ratelimit.NewAdaptivePolicy(store)
	second.Now = func() time.Time { return now.Add(5 * time.Second) }

	if err := first.AfterCall(ctx, bucket, core.HTTPResponse{
		StatusCode: 429,
		Headers:    map[string]string{"Retry-After": "30"},
	}); err != nil {
		t.Fatalf("after call: %v", err)
	}
	wait, err := second.BeforeCall(ctx, bucket)
	if err != nil {
		t.Fatalf("before call: %v", err)
	}
	if wait != 25*time.Second {
		t.Fatalf("expected the other policy to see 25s of throttle, got %s", wait)
	}

	if err := first.AfterCall(ctx, bucket, core.HTTPResponse{StatusCode: 200}); err != nil {
		t.Fatalf("after call success: %v", err)
	}
	state, err := store.Get(ctx, bucket)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.ThrottledUntil != nil || state.Attempts != 0 || state.LastStatus != 200 || state.Bucket != bucket {
		t.Fatalf("expected throttle cleared in place, got %+v", state)
	}
}

func TestCachedRateLimitStateStore_OverSQLStore(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	base, err := sqlstore.NewRateLimitStateStore(client.DB())
	if err != nil {
		t.Fatalf("new rate limit state store: %v", err)
	}
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	store, err := sqlstore.NewCachedRateLimitStateStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	bucket := ratelimit.BucketFor("https://slack.com/api/chat.postMessage")
	if err := store.Upsert(ctx, ratelimit.State{Bucket: bucket, Remaining: 10, UpdatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if state, err := store.Get(ctx, bucket); err != nil || state.Remaining != 10 {
		t.Fatalf("expected cached read of 10, got %+v err=%v", state, err)
	}
	if err := store.Upsert(ctx, ratelimit.State{Bucket: bucket, Remaining: 3, UpdatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if state, err := store.Get(ctx, bucket); err != nil || state.Remaining != 3 {
		t.Fatalf("expected write to invalidate cache, got %+v err=%v", state, err)
	}
}
