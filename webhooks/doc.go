// Package webhooks contains inbound webhook helpers shared by providers:
// body decoding, HMAC and token verification, and HTTPOut construction.
//
// Verification is optional per provider. When a provider has no signing
// secret bound it skips verification and ingests the payload as-is.
package webhooks
