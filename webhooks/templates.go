package webhooks

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
)

const defaultReplayWindow = 5 * time.Minute

// ProviderWebhookTemplate binds a provider to the secret key its webhook
// signatures are checked with and the verifier built from that secret.
type ProviderWebhookTemplate struct {
	ProviderType string
	SecretKey    string
	NewVerifier  func(secret string) Verifier
}

// NewWebexWebhookTemplate checks X-Spark-Signature, a hex HMAC-SHA1 of the
// body keyed by the webhook secret.
func NewWebexWebhookTemplate(providerType string, secretKey string) ProviderWebhookTemplate {
	return ProviderWebhookTemplate{
		ProviderType: providerType,
		SecretKey:    secretKey,
		NewVerifier: func(secret string) Verifier {
			return HeaderHMACVerifier{
				Header:   "X-Spark-Signature",
				Secret:   secret,
				Encoding: "hex",
				Hash:     "sha1",
			}
		},
	}
}

// NewSlackWebhookTemplate checks the v0 timestamped signature scheme.
func NewSlackWebhookTemplate(providerType string, secretKey string, now func() time.Time) ProviderWebhookTemplate {
	return ProviderWebhookTemplate{
		ProviderType: providerType,
		SecretKey:    secretKey,
		NewVerifier: func(secret string) Verifier {
			return TimestampedHMACVerifier{
				SignatureHeader: "X-Slack-Signature",
				TimestampHeader: "X-Slack-Request-Timestamp",
				Version:         "v0",
				Secret:          secret,
				ReplayWindow:    defaultReplayWindow,
				Now:             now,
			}
		},
	}
}

// NewHeaderTokenTemplate checks a shared token carried in header, such as
// the one a gateway in front of the webhook endpoint stamps on requests.
func NewHeaderTokenTemplate(providerType string, secretKey string, header string) ProviderWebhookTemplate {
	return ProviderWebhookTemplate{
		ProviderType: providerType,
		SecretKey:    secretKey,
		NewVerifier: func(secret string) Verifier {
			return HeaderTokenVerifier{Header: header, Token: secret}
		},
	}
}

// Authenticate verifies req when a signing secret is bound under the
// template key. An unbound secret skips verification.
func (t ProviderWebhookTemplate) Authenticate(ctx context.Context, secrets core.SecretStore, req Request) error {
	if secrets == nil || strings.TrimSpace(t.SecretKey) == "" || t.NewVerifier == nil {
		return nil
	}
	value, found, err := secrets.Get(ctx, t.SecretKey)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "secret store error").
			WithCode(500).
			WithTextCode(core.ErrorCredential)
	}
	if !found || strings.TrimSpace(string(value)) == "" {
		return nil
	}
	return t.NewVerifier(string(value)).Verify(ctx, req)
}
