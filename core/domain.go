package core

// TenantCtx scopes a message to an environment and tenant.
type TenantCtx struct {
	Env    string `json:"env"`
	Tenant string `json:"tenant"`
}

// Actor identifies the sender of an inbound message.
type Actor struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"`
}

// Destination is a recipient hint. Kind is optional; when it is absent the
// destination resolver infers it from the id shape.
type Destination struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"`
}

type ReplyScope struct {
	Thread  string `json:"thread,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type Attachment struct {
	MimeType  string `json:"mime_type"`
	URL       string `json:"url"`
	Name      string `json:"name,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// MessageMetadata is the free-form string map carried by envelopes.
type MessageMetadata map[string]string

// ChannelMessageEnvelope is the provider-neutral message representation used
// for both inbound events and outbound sends.
type ChannelMessageEnvelope struct {
	ID            string          `json:"id"`
	Tenant        TenantCtx       `json:"tenant"`
	Channel       string          `json:"channel"`
	SessionID     string          `json:"session_id"`
	ReplyScope    *ReplyScope     `json:"reply_scope,omitempty"`
	From          *Actor          `json:"from,omitempty"`
	To            []Destination   `json:"to"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Text          *string         `json:"text,omitempty"`
	Attachments   []Attachment    `json:"attachments"`
	Metadata      MessageMetadata `json:"metadata"`
}

// MessageText returns the envelope text or an empty string.
func (e ChannelMessageEnvelope) MessageText() string {
	if e.Text == nil {
		return ""
	}
	return *e.Text
}

// Header is a single ordered HTTP header pair.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HTTPIn is an inbound webhook request handed to ingest_http.
type HTTPIn struct {
	Method    string   `json:"method"`
	Path      string   `json:"path"`
	Query     *string  `json:"query,omitempty"`
	Headers   []Header `json:"headers"`
	BodyB64   string   `json:"body_b64"`
	RouteHint *string  `json:"route_hint,omitempty"`
}

// Header returns the first header value matching name case-insensitively.
func (in HTTPIn) Header(name string) string {
	return HeaderValue(in.Headers, name)
}

// HTTPOut is the ingest_http response: an HTTP reply plus normalized events.
type HTTPOut struct {
	Status  int                      `json:"status"`
	Headers []Header                 `json:"headers"`
	BodyB64 string                   `json:"body_b64"`
	Events  []ChannelMessageEnvelope `json:"events"`
}

type RenderPlanIn struct {
	Message  ChannelMessageEnvelope `json:"message"`
	Metadata map[string]any         `json:"metadata"`
}

type RenderPlanOut struct {
	PlanJSON string `json:"plan_json"`
}

// RenderPlan is the structure serialized into RenderPlanOut.PlanJSON.
type RenderPlan struct {
	Tier        string         `json:"tier"`
	SummaryText string         `json:"summary_text"`
	Actions     []string       `json:"actions"`
	Attachments []string       `json:"attachments"`
	Warnings    []string       `json:"warnings"`
	Debug       map[string]any `json:"debug"`
}

// ProviderPayload is an opaque, provider-encoded outbound body plus routing
// metadata. It is produced by encode and consumed by send_payload.
type ProviderPayload struct {
	ContentType string            `json:"content_type"`
	BodyB64     string            `json:"body_b64"`
	Metadata    map[string]string `json:"metadata"`
}

type EncodeIn struct {
	Message ChannelMessageEnvelope `json:"message"`
	Plan    RenderPlanIn           `json:"plan"`
}

type SendPayloadIn struct {
	ProviderType string          `json:"provider_type"`
	TenantID     *string         `json:"tenant_id,omitempty"`
	Payload      ProviderPayload `json:"payload"`
}

type SendPayloadResult struct {
	OK        bool    `json:"ok"`
	Message   *string `json:"message,omitempty"`
	Retryable bool    `json:"retryable"`
}

// ProviderManifest is returned by describe.
type ProviderManifest struct {
	ProviderType    string   `json:"provider_type"`
	Capabilities    []string `json:"capabilities"`
	Ops             []string `json:"ops"`
	ConfigSchemaRef *string  `json:"config_schema_ref"`
	StateSchemaRef  *string  `json:"state_schema_ref"`
}

func StringPtr(value string) *string {
	return &value
}
