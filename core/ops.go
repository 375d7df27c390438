package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	OpSend        = "send"
	OpReply       = "reply"
	OpIngestHTTP  = "ingest_http"
	OpRenderPlan  = "render_plan"
	OpEncode      = "encode"
	OpSendPayload = "send_payload"
)

// StandardOps lists the invoke operations every full provider supports.
func StandardOps() []string {
	return []string{OpSend, OpReply, OpIngestHTTP, OpRenderPlan, OpEncode, OpSendPayload}
}

type OpHandler func(ctx context.Context, input []byte) []byte

// OpRouter maps invoke operation names to handlers. Unknown operations
// produce {"ok":false,"error":"unsupported op: <op>"}.
type OpRouter struct {
	handlers map[string]OpHandler
}

func NewOpRouter() *OpRouter {
	return &OpRouter{handlers: make(map[string]OpHandler)}
}

// Handle registers handler for op, replacing any previous registration.
func (r *OpRouter) Handle(op string, handler OpHandler) *OpRouter {
	op = strings.TrimSpace(op)
	if op == "" || handler == nil {
		return r
	}
	r.handlers[op] = handler
	return r
}

func (r *OpRouter) Route(ctx context.Context, op string, input []byte) []byte {
	if r == nil {
		return ErrorResult(fmt.Sprintf("unsupported op: %s", op))
	}
	handler, ok := r.handlers[op]
	if !ok {
		return ErrorResult(fmt.Sprintf("unsupported op: %s", op))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return handler(ctx, input)
}

func (r *OpRouter) Ops() []string {
	if r == nil {
		return nil
	}
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
