package devkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-messaging-providers/core"
)

// ValidateComponentConformance checks the parts of the provider contract
// that hold for every component regardless of credentials or transport:
// the manifest, healthcheck, the unknown op result, render_plan, and the
// send_payload provider type guard.
func ValidateComponentConformance(ctx context.Context, component core.Component) error {
	if component == nil {
		return fmt.Errorf("devkit: component is required")
	}
	providerType := strings.TrimSpace(component.ProviderType())
	if providerType == "" {
		return fmt.Errorf("devkit: provider type is required")
	}

	var manifest core.ProviderManifest
	if err := json.Unmarshal(component.Describe(), &manifest); err != nil {
		return fmt.Errorf("devkit: describe is not a manifest: %w", err)
	}
	if manifest.ProviderType != providerType {
		return fmt.Errorf("devkit: manifest provider type %q, want %q", manifest.ProviderType, providerType)
	}
	ops := map[string]bool{}
	for _, op := range manifest.Ops {
		ops[op] = true
	}
	for _, op := range []string{core.OpSend, core.OpRenderPlan, core.OpEncode, core.OpSendPayload} {
		if !ops[op] {
			return fmt.Errorf("devkit: manifest is missing op %q", op)
		}
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(component.Healthcheck(), &health); err != nil || health.Status != "ok" {
		return fmt.Errorf("devkit: healthcheck must report status ok")
	}

	unknown := component.Invoke(ctx, "devkit_unknown_op", []byte("{}"))
	if core.ResultOK(unknown) || core.ResultMessage(unknown) != "unsupported op: devkit_unknown_op" {
		return fmt.Errorf("devkit: unknown op returned %s", unknown)
	}

	plan := component.Invoke(ctx, core.OpRenderPlan, []byte(`{"message":{"text":"conformance"},"metadata":{}}`))
	if !core.ResultOK(plan) {
		return fmt.Errorf("devkit: render_plan failed: %s", plan)
	}

	mismatch := component.Invoke(ctx, core.OpSendPayload, SendPayloadFixture(providerType+".other", []byte("{}")))
	var result core.SendPayloadResult
	if err := json.Unmarshal(mismatch, &result); err != nil {
		return fmt.Errorf("devkit: send_payload result: %w", err)
	}
	if result.OK || result.Retryable || result.Message == nil || *result.Message != "provider type mismatch" {
		return fmt.Errorf("devkit: send_payload must reject mismatched provider types, got %s", mismatch)
	}
	return nil
}
