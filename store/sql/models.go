package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type payloadOutboxRecord struct {
	bun.BaseModel `bun:"table:messaging_payload_outbox,alias:mpo"`

	ID           string            `bun:"id,pk"`
	ProviderType string            `bun:"provider_type,notnull"`
	TenantID     string            `bun:"tenant_id,notnull"`
	ContentType  string            `bun:"content_type,notnull"`
	BodyB64      string            `bun:"body_b64,notnull"`
	Metadata     map[string]string `bun:"metadata,type:jsonb,notnull"`
	Status       string            `bun:"status,notnull"`
	Attempts     int               `bun:"attempts,notnull"`
	NextAttempt  *time.Time        `bun:"next_attempt_at,nullzero"`
	LastError    string            `bun:"last_error,notnull"`
	CreatedAt    time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type rateLimitStateRecord struct {
	bun.BaseModel `bun:"table:messaging_rate_limit_state,alias:mrl"`

	ID             string     `bun:"id,pk"`
	BucketKey      string     `bun:"bucket_key,notnull"`
	Host           string     `bun:"host,notnull"`
	Path           string     `bun:"path,notnull"`
	RequestLimit   int        `bun:"request_limit,notnull"`
	Remaining      int        `bun:"remaining,notnull"`
	ResetAt        *time.Time `bun:"reset_at,nullzero"`
	ThrottledUntil *time.Time `bun:"throttled_until,nullzero"`
	LastStatus     int        `bun:"last_status,notnull"`
	Attempts       int        `bun:"attempts,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
