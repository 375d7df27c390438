// Package ratelimit tracks provider API throttling per endpoint and wraps a
// Transport so calls into a throttled endpoint fail fast instead of being
// sent.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-messaging-providers/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

// Bucket identifies an API endpoint: host plus path.
type Bucket struct {
	Host string
	Path string
}

func (b Bucket) String() string {
	return b.Host + b.Path
}

// BucketFor derives the bucket of a request URL.
func BucketFor(rawURL string) Bucket {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return Bucket{Host: strings.ToLower(strings.TrimSpace(rawURL))}
	}
	return Bucket{Host: strings.ToLower(parsed.Host), Path: parsed.EscapedPath()}
}

type State struct {
	Bucket         Bucket
	Limit          int
	Remaining      int
	ResetAt        *time.Time
	ThrottledUntil *time.Time
	LastStatus     int
	Attempts       int
	UpdatedAt      time.Time
}

type StateStore interface {
	Get(ctx context.Context, bucket Bucket) (State, error)
	Upsert(ctx context.Context, state State) error
}

// AdaptivePolicy throttles a bucket after a 429 or an exhausted
// X-RateLimit-Remaining. Retry-After wins over the exponential backoff.
type AdaptivePolicy struct {
	Store          StateStore
	Now            func() time.Time
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewAdaptivePolicy(store StateStore) *AdaptivePolicy {
	return &AdaptivePolicy{
		Store:          store,
		Now:            func() time.Time { return time.Now().UTC() },
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

// BeforeCall returns how long the bucket stays throttled, zero when the
// call may proceed.
func (p *AdaptivePolicy) BeforeCall(ctx context.Context, bucket Bucket) (time.Duration, error) {
	if p == nil || p.Store == nil {
		return 0, nil
	}
	state, err := p.Store.Get(ctx, bucket)
	if errors.Is(err, ErrStateNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	now := p.now()
	if until := state.ThrottledUntil; until != nil && now.Before(*until) {
		return until.Sub(now), nil
	}
	if state.Remaining == 0 && state.ResetAt != nil && now.Before(*state.ResetAt) {
		return state.ResetAt.Sub(now), nil
	}
	return 0, nil
}

func (p *AdaptivePolicy) AfterCall(ctx context.Context, bucket Bucket, res core.HTTPResponse) error {
	if p == nil || p.Store == nil {
		return nil
	}
	now := p.now()
	state, err := p.Store.Get(ctx, bucket)
	switch {
	case errors.Is(err, ErrStateNotFound):
		state = State{Bucket: bucket, Remaining: -1}
	case err != nil:
		return err
	}
	state.LastStatus = res.StatusCode
	state.UpdatedAt = now

	if limit, ok := headerInt(res.Headers, "X-RateLimit-Limit"); ok {
		state.Limit = limit
	}
	remaining, hasRemaining := headerInt(res.Headers, "X-RateLimit-Remaining")
	if hasRemaining {
		state.Remaining = remaining
	}
	if reset, ok := headerInt(res.Headers, "X-RateLimit-Reset"); ok && reset > 0 {
		resetAt := time.Unix(int64(reset), 0).UTC()
		state.ResetAt = &resetAt
	}

	throttled := res.StatusCode == 429 || (res.StatusCode < 500 && hasRemaining && remaining == 0)
	if !throttled {
		state.Attempts = 0
		state.ThrottledUntil = nil
		return p.Store.Upsert(ctx, state)
	}
	state.Attempts++
	delay, ok := retryAfter(res.Headers, now)
	if !ok {
		delay = p.backoff(state.Attempts)
	}
	until := now.Add(delay)
	state.ThrottledUntil = &until
	return p.Store.Upsert(ctx, state)
}

func (p *AdaptivePolicy) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *AdaptivePolicy) backoff(attempt int) time.Duration {
	delay := p.InitialBackoff
	if delay <= 0 {
		delay = time.Second
	}
	maximum := p.MaxBackoff
	if maximum <= 0 {
		maximum = time.Minute
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	return delay
}

func retryAfter(headers map[string]string, now time.Time) (time.Duration, bool) {
	raw := headerValue(headers, "Retry-After")
	if raw == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if at, err := time.Parse(layout, raw); err == nil && at.After(now) {
			return at.Sub(now), true
		}
	}
	return 0, false
}

func headerInt(headers map[string]string, name string) (int, bool) {
	value := headerValue(headers, name)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	return parsed, err == nil
}

func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[Bucket]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[Bucket]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, bucket Bucket) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[bucket]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.Lock()
	s.items[state.Bucket] = state
	s.mu.Unlock()
	return nil
}
