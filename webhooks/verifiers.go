package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
)

const ErrorSignatureInvalid = "MESSAGING_WEBHOOK_SIGNATURE_INVALID"

// Request is a decoded inbound webhook.
type Request struct {
	Headers []core.Header
	Body    []byte
}

func (r Request) Header(name string) string {
	return core.HeaderValue(r.Headers, name)
}

type Verifier interface {
	Verify(ctx context.Context, req Request) error
}

// HeaderHMACVerifier checks an HMAC of the raw body carried in a header.
type HeaderHMACVerifier struct {
	Header   string
	Prefix   string
	Secret   string
	Encoding string // hex | base64
	Hash     string // sha256 | sha1
}

func (v HeaderHMACVerifier) Verify(_ context.Context, req Request) error {
	header := req.Header(v.Header)
	if header == "" {
		return signatureError(fmt.Sprintf("%s signature header is required", strings.TrimSpace(v.Header)))
	}
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return signatureError("signature secret is required")
	}
	signature := strings.TrimSpace(strings.TrimPrefix(header, strings.TrimSpace(v.Prefix)))
	if signature == "" {
		return signatureError("signature value is required")
	}
	expected := computeHMAC(v.Hash, secret, req.Body)
	return compareSignature(v.Encoding, signature, expected)
}

// TimestampedHMACVerifier signs "<version>:<timestamp>:<body>" and rejects
// timestamps outside the replay window.
type TimestampedHMACVerifier struct {
	SignatureHeader string
	TimestampHeader string
	Version         string
	Secret          string
	ReplayWindow    time.Duration
	Now             func() time.Time
}

func (v TimestampedHMACVerifier) Verify(_ context.Context, req Request) error {
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return signatureError("signature secret is required")
	}
	timestamp := req.Header(v.TimestampHeader)
	if timestamp == "" {
		return signatureError(fmt.Sprintf("%s header is required", strings.TrimSpace(v.TimestampHeader)))
	}
	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return signatureError(fmt.Sprintf("invalid %s header", strings.TrimSpace(v.TimestampHeader)))
	}
	if v.ReplayWindow > 0 {
		now := time.Now().UTC()
		if v.Now != nil {
			now = v.Now().UTC()
		}
		skew := math.Abs(now.Sub(time.Unix(seconds, 0).UTC()).Seconds())
		if skew > v.ReplayWindow.Seconds() {
			return signatureError("webhook timestamp outside replay window")
		}
	}

	version := strings.TrimSpace(v.Version)
	header := req.Header(v.SignatureHeader)
	if header == "" {
		return signatureError(fmt.Sprintf("%s signature header is required", strings.TrimSpace(v.SignatureHeader)))
	}
	signature := strings.TrimPrefix(header, version+"=")

	base := make([]byte, 0, len(version)+len(timestamp)+len(req.Body)+2)
	base = append(base, version...)
	base = append(base, ':')
	base = append(base, timestamp...)
	base = append(base, ':')
	base = append(base, req.Body...)
	return compareSignature("hex", signature, computeHMAC("sha256", secret, base))
}

// HeaderTokenVerifier compares a shared token carried in a header.
type HeaderTokenVerifier struct {
	Header string
	Token  string
}

func (v HeaderTokenVerifier) Verify(_ context.Context, req Request) error {
	expected := strings.TrimSpace(v.Token)
	if expected == "" {
		return signatureError("verification token is required")
	}
	actual := req.Header(v.Header)
	if actual == "" {
		return signatureError(fmt.Sprintf("%s verification header is required", strings.TrimSpace(v.Header)))
	}
	if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
		return signatureError("verification token mismatch")
	}
	return nil
}

// Sign returns the encoded HMAC of body, matching HeaderHMACVerifier.
func Sign(hashName string, encoding string, secret string, body []byte) string {
	sum := computeHMAC(hashName, strings.TrimSpace(secret), body)
	if strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

// SignTimestamped returns "<version>=<hex>" for a timestamped signature.
func SignTimestamped(version string, secret string, timestamp string, body []byte) string {
	base := version + ":" + timestamp + ":" + string(body)
	return version + "=" + hex.EncodeToString(computeHMAC("sha256", strings.TrimSpace(secret), []byte(base)))
}

func computeHMAC(hashName string, secret string, payload []byte) []byte {
	var factory func() hash.Hash
	switch strings.ToLower(strings.TrimSpace(hashName)) {
	case "sha1":
		factory = sha1.New
	default:
		factory = sha256.New
	}
	mac := hmac.New(factory, []byte(secret))
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}

func compareSignature(encoding string, signature string, expected []byte) error {
	var (
		decoded []byte
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		decoded, err = base64.StdEncoding.DecodeString(signature)
		if err != nil {
			return signatureError("decode base64 signature")
		}
	default:
		decoded, err = hex.DecodeString(strings.ToLower(signature))
		if err != nil {
			return signatureError("decode hex signature")
		}
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return signatureError("signature verification failed")
	}
	return nil
}

func signatureError(message string) *goerrors.Error {
	return goerrors.New("webhooks: "+message, goerrors.CategoryAuth).
		WithCode(401).
		WithTextCode(ErrorSignatureInvalid)
}
