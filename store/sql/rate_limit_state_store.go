package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-messaging-providers/ratelimit"
)

// RateLimitStateStore shares endpoint throttling state between service
// instances through messaging_rate_limit_state, one row per bucket.
type RateLimitStateStore struct {
	db   *bun.DB
	repo repository.Repository[*rateLimitStateRecord]
}

func NewRateLimitStateStore(db *bun.DB) (*RateLimitStateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*rateLimitStateRecord](db, rateLimitStateHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid rate limit state repository wiring: %w", err)
		}
	}
	return &RateLimitStateStore{db: db, repo: repo}, nil
}

func (s *RateLimitStateStore) Get(ctx context.Context, bucket ratelimit.Bucket) (ratelimit.State, error) {
	if s == nil || s.db == nil {
		return ratelimit.State{}, fmt.Errorf("sqlstore: rate limit state store is not configured")
	}
	key, err := bucketKey(bucket)
	if err != nil {
		return ratelimit.State{}, err
	}
	record, err := findRateLimitState(ctx, s.db, key)
	if err != nil {
		return ratelimit.State{}, err
	}
	if record == nil {
		return ratelimit.State{}, ratelimit.ErrStateNotFound
	}
	return record.toState(), nil
}

func (s *RateLimitStateStore) Upsert(ctx context.Context, state ratelimit.State) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: rate limit state store is not configured")
	}
	key, err := bucketKey(state.Bucket)
	if err != nil {
		return err
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findRateLimitState(ctx, tx, key)
		if err != nil {
			return err
		}
		created := record == nil
		if created {
			record = &rateLimitStateRecord{
				ID:        uuid.NewString(),
				BucketKey: key,
				CreatedAt: state.UpdatedAt.UTC(),
			}
		}
		record.Host = strings.ToLower(strings.TrimSpace(state.Bucket.Host))
		record.Path = state.Bucket.Path
		record.RequestLimit = state.Limit
		record.Remaining = state.Remaining
		record.ResetAt = utcPointer(state.ResetAt)
		record.ThrottledUntil = utcPointer(state.ThrottledUntil)
		record.LastStatus = state.LastStatus
		record.Attempts = state.Attempts
		record.UpdatedAt = state.UpdatedAt.UTC()

		if created {
			_, err = tx.NewInsert().Model(record).Exec(ctx)
			return err
		}
		_, err = tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
		return err
	})
}

func findRateLimitState(ctx context.Context, db bun.IDB, key string) (*rateLimitStateRecord, error) {
	record := &rateLimitStateRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.bucket_key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *rateLimitStateRecord) toState() ratelimit.State {
	return ratelimit.State{
		Bucket:         ratelimit.Bucket{Host: r.Host, Path: r.Path},
		Limit:          r.RequestLimit,
		Remaining:      r.Remaining,
		ResetAt:        utcPointer(r.ResetAt),
		ThrottledUntil: utcPointer(r.ThrottledUntil),
		LastStatus:     r.LastStatus,
		Attempts:       r.Attempts,
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func bucketKey(bucket ratelimit.Bucket) (string, error) {
	bucket.Host = strings.ToLower(strings.TrimSpace(bucket.Host))
	if bucket.Host == "" {
		return "", fmt.Errorf("sqlstore: rate limit bucket host is required")
	}
	return bucket.String(), nil
}

func utcPointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
