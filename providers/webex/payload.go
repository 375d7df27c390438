package webex

import (
	"context"
	"net/http"

	"github.com/goliatone/go-messaging-providers/providers/common"
)

// encodeURL is where encoded payloads are addressed. send_payload replays
// through send, so a per-request api_base_url still applies at dispatch.
const encodeURL = DefaultAPIBaseURL + "/messages"

func (p *Provider) renderPlan(_ context.Context, input []byte) []byte {
	return common.RenderPlan(input, summaryPlaceholder)
}

func (p *Provider) encode(_ context.Context, input []byte) []byte {
	return common.Encode(input, encodeURL, http.MethodPost)
}

func (p *Provider) sendPayload(ctx context.Context, input []byte) []byte {
	return common.SendPayload(ctx, input, ProviderType, p.send)
}
